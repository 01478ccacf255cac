package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// dateLayouts are tried in order; the first successful parse wins
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// parseDate resolves a date string to a UTC instant
func parseDate(value string) models.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.Date{Time: t.UTC(), Valid: true}
		}
	}
	return models.Date{}
}

// ParseAsOf parses a caller-supplied reference date with the same layouts as award dates.
// An empty value yields the zero time, which the pipeline resolves to now.
func ParseAsOf(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	d := parseDate(value)
	if !d.Valid {
		return time.Time{}, fmt.Errorf("invalid as-of date %q", value)
	}
	return d.Time, nil
}

// Normalize converts a raw award into the canonical record.
// It never fails: bad amounts become 0 and unparseable dates leave the record undated.
func Normalize(raw models.RawAward) models.AwardRecord {
	amount := raw.Amount.Float64()
	if amount < 0 {
		amount = 0
	}

	record := models.AwardRecord{
		ID:            strings.TrimSpace(raw.ID),
		Amount:        amount,
		AgencyName:    models.UnknownAgency,
		RecipientID:   strings.TrimSpace(raw.RecipientID),
		RecipientName: strings.TrimSpace(raw.RecipientName),
		Description:   raw.Description,
		Status:        strings.ToLower(strings.TrimSpace(raw.Status)),
		Type:          raw.Type,
	}

	if agency := raw.AwardingAgency; agency != nil {
		record.AgencyID = agency.ID
		if name := strings.TrimSpace(agency.Name); name != "" {
			record.AgencyName = name
		}
		if agency.Subtier != nil {
			record.SubtierAgencyID = agency.Subtier.ID
			record.SubtierAgencyName = agency.Subtier.Name
		}
	}

	if raw.PeriodOfPerformance != nil {
		record.Period = models.Period{
			Start:        parseDate(raw.PeriodOfPerformance.StartDate),
			End:          parseDate(raw.PeriodOfPerformance.EndDate),
			PotentialEnd: parseDate(raw.PeriodOfPerformance.PotentialEndDate),
		}
	}

	if raw.ContractData != nil {
		record.ExtentCompeted = raw.ContractData.ExtentCompeted
		if record.Type == "" {
			record.Type = raw.ContractData.ContractType
		}
	}

	// Precedence: date, action date, award date, period start
	for _, candidate := range []string{raw.Date, raw.ActionDate, raw.AwardDate} {
		if d := parseDate(candidate); d.Valid {
			record.EffectiveDate = d.Time
			record.Dated = true
			break
		}
	}
	if !record.Dated && record.Period.Start.Valid {
		record.EffectiveDate = record.Period.Start.Time
		record.Dated = true
	}

	return record
}

// NormalizeAll normalizes every raw award, preserving input order
func NormalizeAll(raws []models.RawAward) []models.AwardRecord {
	records := make([]models.AwardRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw))
	}
	return records
}
