package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAward_UnmarshalFlatShape(t *testing.T) {
	data := `{"id":"A1","amount":50000,"date":"2023-01-10","agency":"Department of Defense","recipient":"Acme Corp","description":"Widgets"}`

	var raw RawAward
	require.NoError(t, json.Unmarshal([]byte(data), &raw))

	assert.Equal(t, AgencyShapeFlat, raw.Shape)
	require.NotNil(t, raw.AwardingAgency)
	assert.Equal(t, "Department of Defense", raw.AwardingAgency.Name)
	assert.Equal(t, "Acme Corp", raw.RecipientName)
	assert.Equal(t, 50000.0, raw.Amount.Float64())
}

func TestRawAward_UnmarshalNestedShape(t *testing.T) {
	data := `{
		"id": "A2",
		"amount": "1,200,000.50",
		"action_date": "2024-03-01",
		"status": "active",
		"recipient_id": "R-1",
		"recipient_name": "Acme Corp",
		"awarding_agency": {"id": "097", "name": "Department of the Navy", "subtier_agency": {"id": "1700", "name": "Naval Sea Systems"}},
		"period_of_performance": {"start_date": "2024-03-01", "end_date": "2026-03-01", "potential_end_date": "2028-03-01"}
	}`

	var raw RawAward
	require.NoError(t, json.Unmarshal([]byte(data), &raw))

	assert.Equal(t, AgencyShapeNested, raw.Shape)
	require.NotNil(t, raw.AwardingAgency)
	assert.Equal(t, "097", raw.AwardingAgency.ID)
	require.NotNil(t, raw.AwardingAgency.Subtier)
	assert.Equal(t, "1700", raw.AwardingAgency.Subtier.ID)
	assert.InDelta(t, 1200000.50, raw.Amount.Float64(), 0.001)
	require.NotNil(t, raw.PeriodOfPerformance)
	assert.Equal(t, "2028-03-01", raw.PeriodOfPerformance.PotentialEndDate)
}

func TestRawAward_AgencyObjectUnderFlatKey(t *testing.T) {
	var raw RawAward
	require.NoError(t, json.Unmarshal([]byte(`{"id":"A3","agency":{"id":"12","name":"GSA"}}`), &raw))

	assert.Equal(t, AgencyShapeNested, raw.Shape)
	assert.Equal(t, "GSA", raw.AwardingAgency.Name)
	assert.Equal(t, "12", raw.AwardingAgency.ID)
}

func TestRawAward_MissingAgency(t *testing.T) {
	var raw RawAward
	require.NoError(t, json.Unmarshal([]byte(`{"id":"A4","agency":null}`), &raw))

	assert.Equal(t, AgencyShapeNone, raw.Shape)
	assert.Nil(t, raw.AwardingAgency)
}

func TestRawAward_RoundTripKeepsAgency(t *testing.T) {
	var raw RawAward
	require.NoError(t, json.Unmarshal([]byte(`{"id":"A5","amount":10,"agency":"DOD"}`), &raw))

	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	var again RawAward
	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.Equal(t, "DOD", again.AwardingAgency.Name)
	assert.Equal(t, 10.0, again.Amount.Float64())
}

func TestFlexFloat_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"number", `12.5`, 12.5},
		{"null", `null`, 0},
		{"numeric string", `"3000"`, 3000},
		{"currency string", `"$1,500.25"`, 1500.25},
		{"garbage string", `"n/a"`, 0},
		{"boolean", `true`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexFloat
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.want, f.Float64())
		})
	}
}

func TestAwardRecord_RecipientKey(t *testing.T) {
	assert.Equal(t, "R-1", AwardRecord{RecipientID: "R-1", RecipientName: "Acme"}.RecipientKey())
	assert.Equal(t, "Acme", AwardRecord{RecipientName: "Acme"}.RecipientKey())
	assert.Equal(t, UnknownRecipient, AwardRecord{}.RecipientKey())
}

func TestRawAward_WrongFieldTypesDefaultInsteadOfFailing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, raw RawAward)
	}{
		{
			name:  "numeric date keeps its text",
			input: `{"id":"B1","amount":10,"date":20230110,"agency":"NASA"}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Equal(t, "20230110", raw.Date)
				assert.Equal(t, "NASA", raw.AwardingAgency.Name)
			},
		},
		{
			name:  "numeric id",
			input: `{"id":42,"amount":10}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Equal(t, "42", raw.ID)
				assert.Equal(t, 10.0, raw.Amount.Float64())
			},
		},
		{
			name:  "boolean period end",
			input: `{"id":"B3","period_of_performance":{"start_date":"2024-01-01","end_date":false}}`,
			check: func(t *testing.T, raw RawAward) {
				require.NotNil(t, raw.PeriodOfPerformance)
				assert.Equal(t, "2024-01-01", raw.PeriodOfPerformance.StartDate)
				assert.Empty(t, raw.PeriodOfPerformance.EndDate)
			},
		},
		{
			name:  "object status and array description",
			input: `{"id":"B4","status":{"code":"A"},"description":["x"],"recipient":"Acme"}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Empty(t, raw.Status)
				assert.Empty(t, raw.Description)
				assert.Equal(t, "Acme", raw.RecipientName)
			},
		},
		{
			name:  "period given as a string",
			input: `{"id":"B5","period_of_performance":"2024"}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Nil(t, raw.PeriodOfPerformance)
			},
		},
		{
			name:  "nested agency with numeric ids",
			input: `{"id":"B6","awarding_agency":{"id":97,"name":"DOD","subtier_agency":{"id":1700,"name":true}}}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Equal(t, AgencyShapeNested, raw.Shape)
				assert.Equal(t, "97", raw.AwardingAgency.ID)
				require.NotNil(t, raw.AwardingAgency.Subtier)
				assert.Equal(t, "1700", raw.AwardingAgency.Subtier.ID)
				assert.Empty(t, raw.AwardingAgency.Subtier.Name)
			},
		},
		{
			name:  "agency given as a number",
			input: `{"id":"B7","agency":12}`,
			check: func(t *testing.T, raw RawAward) {
				assert.Equal(t, AgencyShapeNone, raw.Shape)
				assert.Nil(t, raw.AwardingAgency)
			},
		},
		{
			name:  "element that is not an object",
			input: `17`,
			check: func(t *testing.T, raw RawAward) {
				assert.Empty(t, raw.ID)
				assert.Equal(t, AgencyShapeNone, raw.Shape)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawAward
			require.NoError(t, json.Unmarshal([]byte(tt.input), &raw))
			tt.check(t, raw)
		})
	}
}

func TestRawAward_MixedBatchDecodesEveryRecord(t *testing.T) {
	batch := `[
		{"id":"C1","amount":100,"date":"2023-01-10","agency":"NASA"},
		{"id":"C2","amount":200,"date":20230110,"agency":"NASA"},
		{"id":42,"amount":"300"},
		{"id":"C4","amount":400,"period_of_performance":{"end_date":false}},
		{"id":"C5","amount":500,"status":true,"description":{}}
	]`

	var awards []RawAward
	require.NoError(t, json.Unmarshal([]byte(batch), &awards))
	require.Len(t, awards, 5)

	total := 0.0
	for _, award := range awards {
		total += award.Amount.Float64()
	}
	assert.Equal(t, 1500.0, total)
	assert.Equal(t, "42", awards[2].ID)
}

func TestFlexString_Unmarshal(t *testing.T) {
	tests := map[string]string{
		`"abc"`:       "abc",
		`42`:          "42",
		`1.5e3`:       "1.5e3",
		`true`:        "",
		`null`:        "",
		`{"a":1}`:     "",
		`["a","b"]`:   "",
		`"  padded "`: "  padded ",
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			var s FlexString
			require.NoError(t, json.Unmarshal([]byte(input), &s))
			assert.Equal(t, want, string(s))
		})
	}
}
