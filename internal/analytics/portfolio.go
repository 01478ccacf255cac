package analytics

import (
	"sort"

	"github.com/ternarybob/govspend/internal/models"
)

// Portfolios is the ordered output of Aggregate, largest total first
type Portfolios []CompanyPortfolio

// Find returns the portfolio for a recipient key
func (p Portfolios) Find(recipient string) (CompanyPortfolio, bool) {
	for _, portfolio := range p {
		if portfolio.Recipient == recipient {
			return portfolio, true
		}
	}
	return CompanyPortfolio{}, false
}

// Aggregate groups records by recipient in a single pass.
// Every record lands in exactly one portfolio, so the sum of portfolio totals equals
// the sum of record amounts. Undated records are counted but left out of yearly buckets.
func Aggregate(records []models.AwardRecord) Portfolios {
	index := make(map[string]int)
	portfolios := make(Portfolios, 0)

	for i := range records {
		record := records[i]
		key := record.RecipientKey()

		pos, ok := index[key]
		if !ok {
			pos = len(portfolios)
			index[key] = pos
			portfolios = append(portfolios, CompanyPortfolio{
				Recipient:     key,
				RecipientName: record.RecipientName,
				YearlyBuckets: make(map[int][]models.AwardRecord),
			})
		}

		portfolio := &portfolios[pos]
		portfolio.TotalAmount += record.Amount
		portfolio.ContractCount++
		portfolio.Records = append(portfolio.Records, record)
		if portfolio.RecipientName == "" {
			portfolio.RecipientName = record.RecipientName
		}

		if !record.Dated {
			continue
		}

		if portfolio.LatestContract == nil || record.EffectiveDate.After(portfolio.LatestContract.EffectiveDate) {
			latest := record
			portfolio.LatestContract = &latest
		}

		year := record.EffectiveDate.Year()
		portfolio.YearlyBuckets[year] = append(portfolio.YearlyBuckets[year], record)
	}

	for i := range portfolios {
		years := make([]int, 0, len(portfolios[i].YearlyBuckets))
		for year := range portfolios[i].YearlyBuckets {
			years = append(years, year)
		}
		sort.Ints(years)
		portfolios[i].Years = years
	}

	sort.SliceStable(portfolios, func(i, j int) bool {
		return portfolios[i].TotalAmount > portfolios[j].TotalAmount
	})

	return portfolios
}
