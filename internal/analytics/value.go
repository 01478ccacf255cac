package analytics

import (
	"sort"
	"strconv"

	"github.com/ternarybob/govspend/internal/models"
)

// ValueAnalyzer computes size distribution and monthly, yearly and quarterly trends
type ValueAnalyzer struct {
	config SizeConfig
}

// NewValueAnalyzer creates a value analyzer
func NewValueAnalyzer(config SizeConfig) *ValueAnalyzer {
	return &ValueAnalyzer{config: config}
}

// Analyze computes the value analysis for one portfolio
func (a *ValueAnalyzer) Analyze(p CompanyPortfolio) ValueAnalysis {
	result := ValueAnalysis{
		AverageContractSize: safeDiv(p.TotalAmount, float64(p.ContractCount)),
		MonthlyTrends:       []MonthlyPoint{},
		RecentMonths:        []MonthlyPoint{},
		YearlyTrends:        []TrendPoint{},
		QuarterlyTrends:     []TrendPoint{},
	}

	for _, record := range p.Records {
		switch a.bucket(record.Amount) {
		case "small":
			result.SizeDistribution.Small++
		case "medium":
			result.SizeDistribution.Medium++
		default:
			result.SizeDistribution.Large++
		}
	}

	if p.ContractCount > 0 {
		count := float64(p.ContractCount)
		result.SizeDistributionPct = SizeDistributionPct{
			Small:  round(float64(result.SizeDistribution.Small)/count*100, 2),
			Medium: round(float64(result.SizeDistribution.Medium)/count*100, 2),
			Large:  round(float64(result.SizeDistribution.Large)/count*100, 2),
		}
	}

	result.MonthlyTrends = monthlySeries(p.Records)
	if n := a.config.RecentMonths; n > 0 {
		start := len(result.MonthlyTrends) - n
		if start < 0 {
			start = 0
		}
		result.RecentMonths = append(result.RecentMonths, result.MonthlyTrends[start:]...)
	}

	result.YearlyTrends = yearlySeries(p)
	if len(result.YearlyTrends) > 0 {
		result.YearOverYearGrowth = *result.YearlyTrends[len(result.YearlyTrends)-1].GrowthPercent
	}

	result.QuarterlyTrends = quarterlySeries(p.Records)
	result.Competition = competitionBreakdown(p.Records)

	return result
}

// bucket classifies an amount as small, medium or large
func (a *ValueAnalyzer) bucket(amount float64) string {
	switch {
	case amount < a.config.SmallBelow:
		return "small"
	case amount < a.config.LargeAtOrAbove:
		return "medium"
	default:
		return "large"
	}
}

// monthlySeries sums dated records per YYYY-MM, ascending
func monthlySeries(records []models.AwardRecord) []MonthlyPoint {
	byMonth := make(map[string]*MonthlyPoint)
	for _, record := range records {
		if !record.Dated {
			continue
		}
		key := monthKey(record.EffectiveDate)
		point, ok := byMonth[key]
		if !ok {
			point = &MonthlyPoint{Period: key}
			byMonth[key] = point
		}
		point.Total += record.Amount
		point.Count++
	}

	series := make([]MonthlyPoint, 0, len(byMonth))
	for _, point := range byMonth {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Period < series[j].Period
	})
	return series
}

// yearlySeries builds one point per bucketed year with growth against the prior calendar year
func yearlySeries(p CompanyPortfolio) []TrendPoint {
	totals := make(map[int]float64, len(p.YearlyBuckets))
	for year, records := range p.YearlyBuckets {
		for _, record := range records {
			totals[year] += record.Amount
		}
	}

	series := make([]TrendPoint, 0, len(p.Years))
	for _, year := range p.Years {
		count := len(p.YearlyBuckets[year])
		total := totals[year]

		growth := 0.0
		if prior := totals[year-1]; prior > 0 {
			growth = (total - prior) / prior * 100
		}

		series = append(series, TrendPoint{
			Period:        strconv.Itoa(year),
			Year:          year,
			Total:         total,
			Count:         count,
			AverageSize:   safeDiv(total, float64(count)),
			GrowthPercent: &growth,
		})
	}
	return series
}

// quarterlySeries sums dated records per "YYYY Qn", ascending
func quarterlySeries(records []models.AwardRecord) []TrendPoint {
	type quarter struct{ year, q int }

	byQuarter := make(map[quarter]*TrendPoint)
	for _, record := range records {
		if !record.Dated {
			continue
		}
		key := quarter{record.EffectiveDate.Year(), quarterOf(record.EffectiveDate)}
		point, ok := byQuarter[key]
		if !ok {
			point = &TrendPoint{Period: quarterLabel(record.EffectiveDate), Year: key.year}
			byQuarter[key] = point
		}
		point.Total += record.Amount
		point.Count++
	}

	keys := make([]quarter, 0, len(byQuarter))
	for key := range byQuarter {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].q < keys[j].q
	})

	series := make([]TrendPoint, 0, len(keys))
	for _, key := range keys {
		point := *byQuarter[key]
		point.AverageSize = safeDiv(point.Total, float64(point.Count))
		series = append(series, point)
	}
	return series
}
