package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ternarybob/govspend/internal/models"
)

func withStatus(r models.AwardRecord, status string) models.AwardRecord {
	r.Status = status
	return r
}

func TestIsWon(t *testing.T) {
	tests := []struct {
		name   string
		record models.AwardRecord
		want   bool
	}{
		{"positive amount", undated("1", "Acme", 1), true},
		{"zero amount active", withStatus(undated("1", "Acme", 0), "active"), true},
		{"zero amount completed", withStatus(undated("1", "Acme", 0), "completed"), true},
		{"zero amount awarded", withStatus(undated("1", "Acme", 0), "awarded"), true},
		{"zero amount cancelled", withStatus(undated("1", "Acme", 0), "cancelled"), false},
		{"zero amount no status", undated("1", "Acme", 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWon(tt.record); got != tt.want {
				t.Errorf("IsWon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerformanceAnalyzer_Analyze(t *testing.T) {
	records := []models.AwardRecord{
		dated("1", "Acme", 100, "2023-05-01"),
		dated("2", "Acme", 0, "2023-04-15"),
		withStatus(dated("3", "Acme", 0, "2023-06-30"), "awarded"),
		dated("4", "Acme", 300, "2022-12-01"),
		undated("5", "Acme", 9999),
	}

	got := NewPerformanceAnalyzer().Analyze(records)

	want := HistoricalPerformance{
		TotalBids:            4,
		WonBids:              3,
		WinRate:              75,
		AverageContractValue: 400.0 / 3.0,
		RecentTrends: []QuarterlyPerformance{
			{Period: "2022-Q4", WinRate: 100, ContractCount: 1, WonCount: 1, TotalValue: 300},
			{Period: "2023-Q2", WinRate: 200.0 / 3.0, ContractCount: 3, WonCount: 2, TotalValue: 100},
		},
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
}

func TestPerformanceAnalyzer_NothingWon(t *testing.T) {
	got := NewPerformanceAnalyzer().Analyze([]models.AwardRecord{
		dated("1", "Acme", 0, "2023-01-01"),
	})

	if got.TotalBids != 1 || got.WonBids != 0 {
		t.Errorf("bids = %d/%d, want 0/1", got.WonBids, got.TotalBids)
	}
	if got.WinRate != 0 || got.AverageContractValue != 0 {
		t.Errorf("WinRate = %v, AverageContractValue = %v, want 0", got.WinRate, got.AverageContractValue)
	}
}

func TestPerformanceAnalyzer_Empty(t *testing.T) {
	got := NewPerformanceAnalyzer().Analyze(nil)

	if got.TotalBids != 0 || got.WinRate != 0 || len(got.RecentTrends) != 0 {
		t.Errorf("Analyze(nil) = %+v, want zero", got)
	}
}
