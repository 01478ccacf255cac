// Package usaspending provides a client for the USAspending.gov award search API.
package usaspending

import (
	"bytes"
	"encoding/json"

	"github.com/ternarybob/govspend/internal/models"
)

// Contract award type codes (definitive contracts, purchase orders, delivery orders, BPA calls)
var ContractAwardTypes = []string{"A", "B", "C", "D"}

// searchFields are the columns requested from spending_by_award
var searchFields = []string{
	"Award ID",
	"Award Amount",
	"Start Date",
	"End Date",
	"Awarding Agency",
	"Awarding Sub Agency",
	"Awarding Sub Agency Code",
	"awarding_agency_id",
	"Recipient Name",
	"recipient_id",
	"Description",
	"Contract Award Type",
	"generated_internal_id",
}

// AwardSearch describes one award search
type AwardSearch struct {
	// RecipientText filters by recipient name or UEI; empty means all recipients
	RecipientText string
	// LookbackYears overrides the client default window when > 0
	LookbackYears int
	// MaxPages overrides the client default page cap when > 0
	MaxPages int
}

// searchRequest is the spending_by_award request body
type searchRequest struct {
	Filters searchFilters `json:"filters"`
	Fields  []string      `json:"fields"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Sort    string        `json:"sort"`
	Order   string        `json:"order"`
}

type searchFilters struct {
	TimePeriod          []timePeriod  `json:"time_period"`
	AwardTypeCodes      []string      `json:"award_type_codes"`
	AwardAmounts        []amountRange `json:"award_amounts"`
	RecipientSearchText []string      `json:"recipient_search_text,omitempty"`
}

type timePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type amountRange struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// searchResponse is the spending_by_award response body
type searchResponse struct {
	Results      []searchResult `json:"results"`
	PageMetadata pageMetadata   `json:"page_metadata"`
}

type pageMetadata struct {
	Page    int  `json:"page"`
	HasNext bool `json:"hasNext"`
}

// searchResult is one row keyed by the requested field names
type searchResult struct {
	AwardID             string           `json:"Award ID"`
	AwardAmount         models.FlexFloat `json:"Award Amount"`
	StartDate           string           `json:"Start Date"`
	EndDate             string           `json:"End Date"`
	AwardingAgency      string           `json:"Awarding Agency"`
	AwardingSubAgency   string           `json:"Awarding Sub Agency"`
	AwardingSubCode     flexID           `json:"Awarding Sub Agency Code"`
	AwardingAgencyID    flexID           `json:"awarding_agency_id"`
	RecipientName       string           `json:"Recipient Name"`
	RecipientID         string           `json:"recipient_id"`
	Description         string           `json:"Description"`
	ContractAwardType   string           `json:"Contract Award Type"`
	GeneratedInternalID string           `json:"generated_internal_id"`
}

// toRawAward maps a search row into the nested raw award shape
func (r searchResult) toRawAward() models.RawAward {
	id := r.GeneratedInternalID
	if id == "" {
		id = r.AwardID
	}

	raw := models.RawAward{
		ID:            id,
		Amount:        r.AwardAmount,
		Date:          r.StartDate,
		Type:          r.ContractAwardType,
		RecipientID:   r.RecipientID,
		RecipientName: r.RecipientName,
		Description:   r.Description,
		Shape:         models.AgencyShapeNone,
	}

	if r.AwardingAgency != "" {
		raw.AwardingAgency = &models.Agency{
			ID:   string(r.AwardingAgencyID),
			Name: r.AwardingAgency,
			Type: "agency",
		}
		if r.AwardingSubAgency != "" && r.AwardingSubAgency != r.AwardingAgency {
			raw.AwardingAgency.Subtier = &models.SubtierAgency{
				ID:   string(r.AwardingSubCode),
				Name: r.AwardingSubAgency,
				Type: "subtier",
			}
		}
		raw.Shape = models.AgencyShapeNested
	}

	if r.StartDate != "" || r.EndDate != "" {
		raw.PeriodOfPerformance = &models.RawPeriod{
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		}
	}

	return raw
}

// agencyAwardsResponse is the agency awards summary body
type agencyAwardsResponse struct {
	AgencyID         flexID           `json:"toptier_code"`
	FiscalYear       int              `json:"fiscal_year"`
	NewAwardCount    models.FlexFloat `json:"new_award_count"`
	TotalObligations models.FlexFloat `json:"total_obligations"`
	LastUpdated      string           `json:"last_updated"`
}

// flexID decodes an identifier sent as either a JSON string or number
type flexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexID) UnmarshalJSON(data []byte) error {
	*f = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
