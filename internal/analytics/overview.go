package analytics

import "github.com/ternarybob/govspend/internal/models"

// Overview summarizes a full record set across all recipients
func Overview(records []models.AwardRecord) SpendingOverview {
	agencies := make(map[string]struct{})
	recipients := make(map[string]struct{})

	overview := SpendingOverview{RecordCount: len(records)}
	for _, record := range records {
		overview.TotalSpending += record.Amount
		if !record.Dated {
			overview.UndatedCount++
		}
		if record.AgencyName != models.UnknownAgency {
			agencies[record.AgencyName] = struct{}{}
		}
		recipients[record.RecipientKey()] = struct{}{}
	}

	overview.AverageAward = safeDiv(overview.TotalSpending, float64(overview.RecordCount))
	overview.UniqueAgencies = len(agencies)
	overview.UniqueRecipients = len(recipients)

	return overview
}
