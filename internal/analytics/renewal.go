package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// RenewalAnalyzer classifies active contracts approaching their end date
type RenewalAnalyzer struct {
	config RenewalConfig
}

// NewRenewalAnalyzer creates a renewal analyzer
func NewRenewalAnalyzer(config RenewalConfig) *RenewalAnalyzer {
	return &RenewalAnalyzer{config: config}
}

// Analyze returns one entry per active record, in input order.
// histories is keyed by agency id and may be nil; agencies without an entry
// fall back to the name-based heuristic.
func (a *RenewalAnalyzer) Analyze(records []models.AwardRecord, asOf time.Time, histories map[string]models.AgencyHistory) []RenewalAnalysis {
	renewals := make([]RenewalAnalysis, 0)

	for _, record := range records {
		if !a.isActive(record, asOf) {
			continue
		}

		end := record.Period.EffectiveEnd()
		months := a.MonthsUntil(end.Time, asOf)
		agencyRisk, source := a.agencyRisk(record, histories)

		renewals = append(renewals, RenewalAnalysis{
			ContractID:         record.ID,
			AgencyName:         record.AgencyName,
			EndDate:            end.Time,
			Amount:             record.Amount,
			MonthsUntilRenewal: months,
			RiskFactors: RiskFactors{
				TimeUntilExpiry: a.ClassifyExpiry(months),
				ContractSize:    a.ClassifySize(record.Amount),
				AgencyHistory:   agencyRisk,
			},
			AgencyHistorySource: source,
		})
	}

	return renewals
}

// isActive applies the active filter: a valid end date, a positive amount and an end
// date (or potential end date) after asOf or inside the trailing grace window
func (a *RenewalAnalyzer) isActive(record models.AwardRecord, asOf time.Time) bool {
	if record.Amount <= 0 || !record.Period.End.Valid {
		return false
	}
	if record.Period.EffectiveEnd().After(asOf) || record.Period.End.After(asOf) {
		return true
	}
	graceStart := asOf.AddDate(0, 0, -a.config.GraceDays)
	return record.Period.End.After(graceStart)
}

// MonthsUntil returns ceil((end - asOf) / month), floored at 0
func (a *RenewalAnalyzer) MonthsUntil(end, asOf time.Time) int {
	monthLength := time.Duration(a.config.MonthDays) * 24 * time.Hour
	months := math.Ceil(float64(end.Sub(asOf)) / float64(monthLength))
	if months < 0 {
		return 0
	}
	return int(months)
}

// ClassifyExpiry maps months until renewal to a risk level
func (a *RenewalAnalyzer) ClassifyExpiry(months int) RiskLevel {
	switch {
	case months <= a.config.HighExpiryMonths:
		return RiskHigh
	case months <= a.config.MediumExpiryMonths:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifySize maps an absolute contract amount to a risk level
func (a *RenewalAnalyzer) ClassifySize(amount float64) RiskLevel {
	switch {
	case amount >= a.config.HighSizeAmount:
		return RiskHigh
	case amount >= a.config.MediumSizeAmount:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifyAgency applies the static heuristic to an agency and its subtier.
// A subtier counts as a known relationship when it carries an id or a name
// distinct from the parent agency.
func (a *RenewalAnalyzer) ClassifyAgency(agencyName, subtierName, subtierID string) RiskLevel {
	names := strings.ToLower(agencyName + " " + subtierName)
	for _, token := range a.config.DefenseTokens {
		if strings.Contains(names, strings.ToLower(token)) {
			return RiskLow
		}
	}
	if subtierID != "" || distinctSubtier(agencyName, subtierName) {
		return RiskMedium
	}
	return RiskHigh
}

func distinctSubtier(agencyName, subtierName string) bool {
	subtier := strings.TrimSpace(subtierName)
	return subtier != "" && !strings.EqualFold(subtier, strings.TrimSpace(agencyName))
}

// ClassifyHistory maps an agency award history to a risk level
func (a *RenewalAnalyzer) ClassifyHistory(h models.AgencyHistory) RiskLevel {
	switch {
	case h.NewAwardCount > a.config.HistoryLowAwardCount && h.TotalObligations > a.config.HistoryLowObligations:
		return RiskLow
	case h.NewAwardCount > a.config.HistoryMediumAwardCount || h.TotalObligations > a.config.HistoryMediumObligations:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// agencyRisk prefers a supplied history over the heuristic
func (a *RenewalAnalyzer) agencyRisk(record models.AwardRecord, histories map[string]models.AgencyHistory) (RiskLevel, HistorySource) {
	if record.AgencyID != "" {
		if history, ok := histories[record.AgencyID]; ok {
			return a.ClassifyHistory(history), HistorySourceLookup
		}
	}
	return a.ClassifyAgency(record.AgencyName, record.SubtierAgencyName, record.SubtierAgencyID), HistorySourceHeuristic
}
