package analytics

import (
	"sort"

	"github.com/ternarybob/govspend/internal/models"
)

// wonStatuses mark an award as won regardless of amount
var wonStatuses = map[string]bool{
	"active":    true,
	"completed": true,
	"awarded":   true,
}

// PerformanceAnalyzer computes quarterly and overall win rates
type PerformanceAnalyzer struct{}

// NewPerformanceAnalyzer creates a performance analyzer
func NewPerformanceAnalyzer() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{}
}

// IsWon reports whether a record counts as a won bid
func IsWon(record models.AwardRecord) bool {
	return record.Amount > 0 || wonStatuses[record.Status]
}

// Analyze buckets dated records by YYYY-Qn. Undated records are excluded.
func (a *PerformanceAnalyzer) Analyze(records []models.AwardRecord) HistoricalPerformance {
	byQuarter := make(map[string]*QuarterlyPerformance)

	for _, record := range records {
		if !record.Dated {
			continue
		}
		key := quarterKey(record.EffectiveDate)
		bucket, ok := byQuarter[key]
		if !ok {
			bucket = &QuarterlyPerformance{Period: key}
			byQuarter[key] = bucket
		}
		bucket.ContractCount++
		if IsWon(record) {
			bucket.WonCount++
			bucket.TotalValue += record.Amount
		}
	}

	keys := make([]string, 0, len(byQuarter))
	for key := range byQuarter {
		keys = append(keys, key)
	}
	// YYYY-Qn sorts chronologically as a string for four digit years
	sort.Strings(keys)

	result := HistoricalPerformance{
		RecentTrends: make([]QuarterlyPerformance, 0, len(keys)),
	}

	wonValue := 0.0
	for _, key := range keys {
		bucket := *byQuarter[key]
		bucket.WinRate = percentOf(float64(bucket.WonCount), float64(bucket.ContractCount))

		result.TotalBids += bucket.ContractCount
		result.WonBids += bucket.WonCount
		wonValue += bucket.TotalValue
		result.RecentTrends = append(result.RecentTrends, bucket)
	}

	result.WinRate = percentOf(float64(result.WonBids), float64(result.TotalBids))
	result.AverageContractValue = safeDiv(wonValue, float64(result.WonBids))

	return result
}
