package analytics

import (
	"testing"
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

var testAsOf = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func validDate(t time.Time) models.Date {
	return models.Date{Time: t, Valid: true}
}

func contract(id, agency string, amount float64, end time.Time) models.AwardRecord {
	return models.AwardRecord{
		ID:            id,
		Amount:        amount,
		AgencyName:    agency,
		RecipientName: "Acme",
		Period:        models.Period{End: validDate(end)},
	}
}

func TestRenewalAnalyzer_LargeContractEndingSoon(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)
	end := testAsOf.AddDate(0, 0, 60)

	tests := []struct {
		name       string
		agency     string
		wantAgency RiskLevel
	}{
		{"defense agency", "Department of Defense", RiskLow},
		{"civilian agency", "Department of Education", RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renewals := analyzer.Analyze([]models.AwardRecord{contract("1", tt.agency, 1_200_000_000, end)}, testAsOf, nil)
			if len(renewals) != 1 {
				t.Fatalf("len(renewals) = %d, want 1", len(renewals))
			}

			got := renewals[0]
			want := RiskFactors{TimeUntilExpiry: RiskHigh, ContractSize: RiskHigh, AgencyHistory: tt.wantAgency}
			if got.RiskFactors != want {
				t.Errorf("RiskFactors = %+v, want %+v", got.RiskFactors, want)
			}
			if got.MonthsUntilRenewal != 2 {
				t.Errorf("MonthsUntilRenewal = %d, want 2", got.MonthsUntilRenewal)
			}
			if got.AgencyHistorySource != HistorySourceHeuristic {
				t.Errorf("AgencyHistorySource = %s, want heuristic", got.AgencyHistorySource)
			}
		})
	}
}

func TestRenewalAnalyzer_ActiveFilter(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)

	potentialOnly := contract("potential", "GSA", 10, testAsOf.AddDate(-2, 0, 0))
	potentialOnly.Period.PotentialEnd = validDate(testAsOf.AddDate(1, 0, 0))

	noEnd := contract("no-end", "GSA", 10, time.Time{})
	noEnd.Period.End = models.Date{}

	tests := []struct {
		name   string
		record models.AwardRecord
		want   bool
	}{
		{"future end", contract("future", "GSA", 10, testAsOf.AddDate(0, 3, 0)), true},
		{"inside grace window", contract("grace", "GSA", 10, testAsOf.AddDate(0, 0, -179)), true},
		{"outside grace window", contract("stale", "GSA", 10, testAsOf.AddDate(0, 0, -181)), false},
		{"zero amount", contract("zero", "GSA", 0, testAsOf.AddDate(0, 3, 0)), false},
		{"potential end extends", potentialOnly, true},
		{"missing end date", noEnd, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := len(analyzer.Analyze([]models.AwardRecord{tt.record}, testAsOf, nil)) == 1
			if got != tt.want {
				t.Errorf("active = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenewalAnalyzer_MonthsUntil(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"past end floors at zero", testAsOf.AddDate(0, 0, -10), 0},
		{"same instant", testAsOf, 0},
		{"one day", testAsOf.AddDate(0, 0, 1), 1},
		{"exactly thirty days", testAsOf.AddDate(0, 0, 30), 1},
		{"thirty one days", testAsOf.AddDate(0, 0, 31), 2},
		{"one year", testAsOf.AddDate(0, 0, 365), 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.MonthsUntil(tt.end, testAsOf); got != tt.want {
				t.Errorf("MonthsUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenewalAnalyzer_Classifiers(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)

	expiry := []struct {
		months int
		want   RiskLevel
	}{
		{0, RiskHigh}, {3, RiskHigh}, {4, RiskMedium}, {6, RiskMedium}, {7, RiskLow},
	}
	for _, tt := range expiry {
		if got := analyzer.ClassifyExpiry(tt.months); got != tt.want {
			t.Errorf("ClassifyExpiry(%d) = %s, want %s", tt.months, got, tt.want)
		}
	}

	size := []struct {
		amount float64
		want   RiskLevel
	}{
		{1_000_000_000, RiskHigh}, {999_999_999, RiskMedium}, {100_000_000, RiskMedium}, {99_999_999, RiskLow},
	}
	for _, tt := range size {
		if got := analyzer.ClassifySize(tt.amount); got != tt.want {
			t.Errorf("ClassifySize(%v) = %s, want %s", tt.amount, got, tt.want)
		}
	}

	agency := []struct {
		name, subtierName, subtierID string
		want                         RiskLevel
	}{
		{"DOD", "", "", RiskLow},
		{"Department of the Army", "Defense Logistics Agency", "97AS", RiskLow},
		{"Department of Energy", "Office of Science", "8900", RiskMedium},
		{"Department of Energy", "National Nuclear Security Administration", "", RiskMedium},
		{"Department of Energy", " department of energy ", "", RiskHigh},
		{"Department of Energy", "", "", RiskHigh},
		{models.UnknownAgency, "", "", RiskHigh},
	}
	for _, tt := range agency {
		if got := analyzer.ClassifyAgency(tt.name, tt.subtierName, tt.subtierID); got != tt.want {
			t.Errorf("ClassifyAgency(%q, %q, %q) = %s, want %s", tt.name, tt.subtierName, tt.subtierID, got, tt.want)
		}
	}

	history := []struct {
		name string
		h    models.AgencyHistory
		want RiskLevel
	}{
		{"large and frequent", models.AgencyHistory{NewAwardCount: 101, TotalObligations: 2e9}, RiskLow},
		{"frequent only", models.AgencyHistory{NewAwardCount: 101, TotalObligations: 1e6}, RiskMedium},
		{"large obligations only", models.AgencyHistory{NewAwardCount: 3, TotalObligations: 6e8}, RiskMedium},
		{"boundary counts are not enough", models.AgencyHistory{NewAwardCount: 50, TotalObligations: 5e8}, RiskHigh},
		{"empty", models.AgencyHistory{}, RiskHigh},
	}
	for _, tt := range history {
		if got := analyzer.ClassifyHistory(tt.h); got != tt.want {
			t.Errorf("ClassifyHistory(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestRenewalAnalyzer_HistoryOverridesHeuristic(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)

	record := contract("1", "Department of Defense", 10, testAsOf.AddDate(0, 8, 0))
	record.AgencyID = "097"

	histories := map[string]models.AgencyHistory{
		"097": {AgencyID: "097", NewAwardCount: 10, TotalObligations: 1000},
	}

	renewals := analyzer.Analyze([]models.AwardRecord{record}, testAsOf, histories)
	if len(renewals) != 1 {
		t.Fatalf("len(renewals) = %d, want 1", len(renewals))
	}
	if renewals[0].RiskFactors.AgencyHistory != RiskHigh {
		t.Errorf("AgencyHistory = %s, want HIGH from history", renewals[0].RiskFactors.AgencyHistory)
	}
	if renewals[0].AgencyHistorySource != HistorySourceLookup {
		t.Errorf("AgencyHistorySource = %s, want history", renewals[0].AgencyHistorySource)
	}

	// without the lookup the defense heuristic applies
	fallback := analyzer.Analyze([]models.AwardRecord{record}, testAsOf, map[string]models.AgencyHistory{})
	if fallback[0].RiskFactors.AgencyHistory != RiskLow {
		t.Errorf("AgencyHistory = %s, want LOW from heuristic", fallback[0].RiskFactors.AgencyHistory)
	}
}

func TestRenewalAnalyzer_Deterministic(t *testing.T) {
	analyzer := NewRenewalAnalyzer(DefaultConfig().Renewal)
	records := []models.AwardRecord{
		contract("1", "DOD", 5e8, testAsOf.AddDate(0, 2, 0)),
		contract("2", "NASA", 5e6, testAsOf.AddDate(1, 0, 0)),
	}

	first := analyzer.Analyze(records, testAsOf, nil)
	for i := 0; i < 10; i++ {
		again := analyzer.Analyze(records, testAsOf, nil)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}

	if first[0].ContractID != "1" || first[1].ContractID != "2" {
		t.Errorf("order not preserved: %s, %s", first[0].ContractID, first[1].ContractID)
	}
}

func TestRenewalAnalyzer_Empty(t *testing.T) {
	if got := NewRenewalAnalyzer(DefaultConfig().Renewal).Analyze(nil, testAsOf, nil); len(got) != 0 {
		t.Errorf("Analyze(nil) = %v, want empty", got)
	}
}
