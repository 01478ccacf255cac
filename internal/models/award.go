package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnknownAgency is the sentinel agency name used when an award carries none.
const UnknownAgency = "Unknown Agency"

// UnknownRecipient is the grouping key used when an award has neither recipient id nor name.
const UnknownRecipient = "Unknown Recipient"

// AgencyShape records which form the awarding agency arrived in
type AgencyShape string

const (
	AgencyShapeNone   AgencyShape = "none"
	AgencyShapeFlat   AgencyShape = "flat"   // "agency": "Department of Defense"
	AgencyShapeNested AgencyShape = "nested" // "awarding_agency": {"id": ..., "name": ...}
)

// Agency is an awarding agency with its optional subtier
type Agency struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Type    string         `json:"type,omitempty"`
	Subtier *SubtierAgency `json:"subtier_agency,omitempty"`
}

// SubtierAgency is the parent/subtier relationship of an agency
type SubtierAgency struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// RawPeriod is the period of performance as received
type RawPeriod struct {
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	PotentialEndDate string `json:"potential_end_date,omitempty"`
}

// RawContractData carries optional procurement details
type RawContractData struct {
	ContractType   string `json:"contract_type,omitempty"`
	ExtentCompeted string `json:"extent_competed,omitempty"`
}

// RawAward is an award record as received from a caller or the upstream API.
// Both the flat shape ("agency": "name", "recipient": "name") and the nested
// shape ("awarding_agency": {...}, "recipient_id", "recipient_name") decode into it;
// after decoding the agency always lives in AwardingAgency and Shape records the source form.
type RawAward struct {
	ID                  string           `json:"id"`
	Amount              FlexFloat        `json:"amount"`
	Date                string           `json:"date,omitempty"`
	ActionDate          string           `json:"action_date,omitempty"`
	AwardDate           string           `json:"award_date,omitempty"`
	Type                string           `json:"type,omitempty"`
	Status              string           `json:"status,omitempty"`
	RecipientID         string           `json:"recipient_id,omitempty"`
	RecipientName       string           `json:"recipient_name,omitempty"`
	Description         string           `json:"description,omitempty"`
	AwardingAgency      *Agency          `json:"awarding_agency,omitempty"`
	PeriodOfPerformance *RawPeriod       `json:"period_of_performance,omitempty"`
	ContractData        *RawContractData `json:"contract_data,omitempty"`
	Shape               AgencyShape      `json:"-"`
}

// UnmarshalJSON resolves the flat and nested agency/recipient shapes once at ingestion.
// Field types are read leniently: a wrongly typed value defaults the field instead of
// failing the record, so one bad award never rejects a whole batch.
func (r *RawAward) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID                  FlexString      `json:"id"`
		Amount              FlexFloat       `json:"amount"`
		Date                FlexString      `json:"date"`
		ActionDate          FlexString      `json:"action_date"`
		AwardDate           FlexString      `json:"award_date"`
		Type                FlexString      `json:"type"`
		Status              FlexString      `json:"status"`
		RecipientID         FlexString      `json:"recipient_id"`
		RecipientName       FlexString      `json:"recipient_name"`
		Recipient           FlexString      `json:"recipient"`
		Description         FlexString      `json:"description"`
		AwardingAgency      json.RawMessage `json:"awarding_agency"`
		Agency              json.RawMessage `json:"agency"`
		PeriodOfPerformance json.RawMessage `json:"period_of_performance"`
		ContractData        json.RawMessage `json:"contract_data"`
	}

	*r = RawAward{Shape: AgencyShapeNone}
	if err := json.Unmarshal(data, &aux); err != nil {
		// not an object: keep an empty record so it is counted and defaulted
		return nil
	}

	*r = RawAward{
		ID:            string(aux.ID),
		Amount:        aux.Amount,
		Date:          string(aux.Date),
		ActionDate:    string(aux.ActionDate),
		AwardDate:     string(aux.AwardDate),
		Type:          string(aux.Type),
		Status:        string(aux.Status),
		RecipientID:   string(aux.RecipientID),
		RecipientName: string(aux.RecipientName),
		Description:   string(aux.Description),
		Shape:         AgencyShapeNone,
	}

	r.AwardingAgency, r.Shape = decodeAgency(aux.AwardingAgency)
	if r.AwardingAgency == nil {
		r.AwardingAgency, r.Shape = decodeAgency(aux.Agency)
	}

	var period RawPeriod
	if decodeObject(aux.PeriodOfPerformance, &period) {
		r.PeriodOfPerformance = &period
	}
	var contract RawContractData
	if decodeObject(aux.ContractData, &contract) {
		r.ContractData = &contract
	}

	if r.RecipientName == "" && aux.Recipient != "" {
		r.RecipientName = string(aux.Recipient)
	}

	return nil
}

// decodeAgency reads an agency given either as a bare name or as an object
func decodeAgency(raw json.RawMessage) (*Agency, AgencyShape) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, AgencyShapeNone
	}

	switch trimmed[0] {
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err == nil && name != "" {
			return &Agency{Name: name}, AgencyShapeFlat
		}
	case '{':
		var agency Agency
		if err := json.Unmarshal(trimmed, &agency); err == nil {
			return &agency, AgencyShapeNested
		}
	}
	return nil, AgencyShapeNone
}

// decodeObject decodes raw into dst when raw is a JSON object
func decodeObject(raw json.RawMessage, dst interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, dst) == nil
}

// UnmarshalJSON implements json.Unmarshaler with lenient field types
func (a *Agency) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID      FlexString      `json:"id"`
		Name    FlexString      `json:"name"`
		Type    FlexString      `json:"type"`
		Subtier json.RawMessage `json:"subtier_agency"`
	}
	*a = Agency{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}

	*a = Agency{ID: string(aux.ID), Name: string(aux.Name), Type: string(aux.Type)}
	var subtier SubtierAgency
	if decodeObject(aux.Subtier, &subtier) {
		a.Subtier = &subtier
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler with lenient field types
func (s *SubtierAgency) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID   FlexString `json:"id"`
		Name FlexString `json:"name"`
		Type FlexString `json:"type"`
	}
	*s = SubtierAgency{}
	if err := json.Unmarshal(data, &aux); err == nil {
		*s = SubtierAgency{ID: string(aux.ID), Name: string(aux.Name), Type: string(aux.Type)}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler; unusable dates become empty and resolve to undated
func (p *RawPeriod) UnmarshalJSON(data []byte) error {
	var aux struct {
		StartDate        FlexString `json:"start_date"`
		EndDate          FlexString `json:"end_date"`
		PotentialEndDate FlexString `json:"potential_end_date"`
	}
	*p = RawPeriod{}
	if err := json.Unmarshal(data, &aux); err == nil {
		*p = RawPeriod{
			StartDate:        string(aux.StartDate),
			EndDate:          string(aux.EndDate),
			PotentialEndDate: string(aux.PotentialEndDate),
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler with lenient field types
func (c *RawContractData) UnmarshalJSON(data []byte) error {
	var aux struct {
		ContractType   FlexString `json:"contract_type"`
		ExtentCompeted FlexString `json:"extent_competed"`
	}
	*c = RawContractData{}
	if err := json.Unmarshal(data, &aux); err == nil {
		*c = RawContractData{
			ContractType:   string(aux.ContractType),
			ExtentCompeted: string(aux.ExtentCompeted),
		}
	}
	return nil
}

// FlexString decodes a JSON string or number into a string.
// Numbers keep their literal text; booleans, objects, arrays and null decode to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch {
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*f = FlexString(s)
		}
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err == nil {
			*f = FlexString(n.String())
		}
	}
	return nil
}

// FlexFloat decodes a JSON number, numeric string or null into a float64.
// Anything it cannot interpret decodes to 0 rather than failing the record.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*f = FlexFloat(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(trimmed, &v); err == nil {
		*f = FlexFloat(v)
	}
	return nil
}

// Float64 returns the value, mapping NaN and infinities to 0
func (f FlexFloat) Float64() float64 {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Date is a resolved calendar instant that may be absent
type Date struct {
	Time  time.Time `json:"time"`
	Valid bool      `json:"valid"`
}

// After reports whether d is valid and strictly after t
func (d Date) After(t time.Time) bool {
	return d.Valid && d.Time.After(t)
}

// Period is a resolved period of performance
type Period struct {
	Start        Date `json:"start"`
	End          Date `json:"end"`
	PotentialEnd Date `json:"potential_end"`
}

// EffectiveEnd returns the potential end date when present, otherwise the end date
func (p Period) EffectiveEnd() Date {
	if p.PotentialEnd.Valid {
		return p.PotentialEnd
	}
	return p.End
}

// AwardRecord is the canonical, normalized award used by every analyzer.
// It is never mutated after construction.
type AwardRecord struct {
	ID                string    `json:"id"`
	Amount            float64   `json:"amount"`
	EffectiveDate     time.Time `json:"effective_date,omitempty"`
	Dated             bool      `json:"dated"`
	AgencyID          string    `json:"agency_id,omitempty"`
	AgencyName        string    `json:"agency_name"`
	SubtierAgencyID   string    `json:"subtier_agency_id,omitempty"`
	SubtierAgencyName string    `json:"subtier_agency_name,omitempty"`
	RecipientID       string    `json:"recipient_id,omitempty"`
	RecipientName     string    `json:"recipient_name,omitempty"`
	Description       string    `json:"description,omitempty"`
	Period            Period    `json:"period"`
	Status            string    `json:"status,omitempty"`
	Type              string    `json:"type,omitempty"`
	ExtentCompeted    string    `json:"extent_competed,omitempty"`
}

// RecipientKey returns the portfolio grouping key for the record
func (a AwardRecord) RecipientKey() string {
	if a.RecipientID != "" {
		return a.RecipientID
	}
	if a.RecipientName != "" {
		return a.RecipientName
	}
	return UnknownRecipient
}

// AgencyHistory is the optional enrichment returned by the agency awards lookup
type AgencyHistory struct {
	AgencyID         string    `json:"agency_id"`
	NewAwardCount    int       `json:"new_award_count"`
	TotalObligations float64   `json:"total_obligations"`
	LastUpdated      time.Time `json:"last_updated"`
	FiscalYear       int       `json:"fiscal_year,omitempty"`
}
