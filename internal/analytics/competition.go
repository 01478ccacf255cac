package analytics

import (
	"strings"

	"github.com/ternarybob/govspend/internal/models"
)

// CompetitionClass is how an award was competed
type CompetitionClass string

const (
	CompetitionCompetitive CompetitionClass = "competitive"
	CompetitionSoleSource  CompetitionClass = "sole_source"
	CompetitionUnknown     CompetitionClass = "unknown"
)

// FPDS extent competed codes
var (
	competitiveCodes = map[string]bool{"A": true, "D": true, "E": true, "F": true, "CDO": true}
	soleSourceCodes  = map[string]bool{"B": true, "C": true, "G": true, "NDO": true}
)

// ClassifyCompetition reads the extent competed code or description, falling back to a
// competitive or sole_source award type.
func ClassifyCompetition(record models.AwardRecord) CompetitionClass {
	if class := classifyExtent(record.ExtentCompeted); class != CompetitionUnknown {
		return class
	}

	switch normalizeCompetition(record.Type) {
	case "SOLE SOURCE":
		return CompetitionSoleSource
	case "COMPETITIVE":
		return CompetitionCompetitive
	}
	return CompetitionUnknown
}

func classifyExtent(extent string) CompetitionClass {
	value := normalizeCompetition(extent)
	switch {
	case value == "":
		return CompetitionUnknown
	case soleSourceCodes[value]:
		return CompetitionSoleSource
	case competitiveCodes[value]:
		return CompetitionCompetitive
	// negated forms first: "NOT COMPETED" also contains "COMPETED"
	case strings.Contains(value, "NOT COMPETED"),
		strings.Contains(value, "NOT AVAILABLE FOR COMPETITION"),
		strings.Contains(value, "NON-COMPETITIVE"),
		strings.Contains(value, "SOLE SOURCE"):
		return CompetitionSoleSource
	case strings.Contains(value, "COMPET"), strings.Contains(value, "FULL AND OPEN"):
		return CompetitionCompetitive
	}
	return CompetitionUnknown
}

func normalizeCompetition(value string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
}

// competitionBreakdown counts and sums a portfolio's records by competition class
func competitionBreakdown(records []models.AwardRecord) CompetitionBreakdown {
	var result CompetitionBreakdown
	for _, record := range records {
		switch ClassifyCompetition(record) {
		case CompetitionCompetitive:
			result.Competitive++
			result.CompetitiveValue += record.Amount
		case CompetitionSoleSource:
			result.SoleSource++
			result.SoleSourceValue += record.Amount
		default:
			result.Unknown++
		}
	}

	if classified := result.Competitive + result.SoleSource; classified > 0 {
		result.SoleSourcePct = round(float64(result.SoleSource)/float64(classified)*100, 2)
	}
	return result
}
