package analytics

import "github.com/ternarybob/govspend/internal/models"

// ConcentrationAnalyzer measures agency dependence and company-vs-baseline concentration
type ConcentrationAnalyzer struct {
	config ConcentrationConfig
}

// NewConcentrationAnalyzer creates a concentration analyzer
func NewConcentrationAnalyzer(config ConcentrationConfig) *ConcentrationAnalyzer {
	return &ConcentrationAnalyzer{config: config}
}

// Analyze computes agency concentration and the contract concentration ratio.
// A revenue of 0 or less means "not supplied" and selects the baseline approximation.
func (a *ConcentrationAnalyzer) Analyze(p CompanyPortfolio, revenue float64) ConcentrationAnalysis {
	result := ConcentrationAnalysis{
		Agencies: []AgencyConcentration{},
	}

	index := make(map[string]int)
	for _, record := range p.Records {
		pos, ok := index[record.AgencyName]
		if !ok {
			pos = len(result.Agencies)
			index[record.AgencyName] = pos
			result.Agencies = append(result.Agencies, AgencyConcentration{AgencyName: record.AgencyName})
		}
		result.Agencies[pos].ContractCount++
		result.Agencies[pos].TotalValue += record.Amount
	}

	topIndex := -1
	for i := range result.Agencies {
		agency := &result.Agencies[i]
		agency.PercentageOfTotal = percentOf(agency.TotalValue, p.TotalAmount)

		// strict comparison keeps the first-seen agency on ties
		if topIndex < 0 || agency.PercentageOfTotal > result.Agencies[topIndex].PercentageOfTotal {
			topIndex = i
		}
		if agency.AgencyName != models.UnknownAgency {
			result.UniqueAgencies++
		}
	}

	if topIndex >= 0 {
		top := result.Agencies[topIndex]
		result.TopAgency = &top
		result.TopAgencyConcentration = top.PercentageOfTotal
	}

	if revenue > 0 {
		result.RevenueProvided = true
		result.ContractConcentration = percentOf(p.TotalAmount, revenue)
	} else {
		result.ContractConcentration = clamp(percentOf(p.TotalAmount, a.config.Baseline), 0, 100)
	}

	return result
}
