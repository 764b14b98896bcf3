package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldworks/radioforms/pkg/types"
)

func TestIncidentName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "plain name", in: "Fire Emergency Alpha"},
		{name: "single character", in: "A"},
		{name: "exactly 100 characters", in: strings.Repeat("x", 100)},
		{name: "101 characters rejected", in: strings.Repeat("x", 101), wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
		{name: "whitespace only rejected", in: "   ", wantErr: true},
		{name: "surrounding whitespace trimmed before length check", in: "  " + strings.Repeat("x", 100) + "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IncidentName(tt.in)
			if tt.wantErr {
				var vErr *types.ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Equal(t, "incident_name", vErr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormType(t *testing.T) {
	assert.NoError(t, FormType("ICS-201"))
	assert.NoError(t, FormType("ICS-215A"))

	var vErr *types.ValidationError
	assert.ErrorAs(t, FormType("ICS-999"), &vErr)
	assert.ErrorAs(t, FormType("ics-201"), &vErr, "lowercase code rejected")
	assert.Equal(t, "form_type", vErr.Field)
}

func TestFormBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object accepted", body: `{"a":1}`},
		{name: "empty object accepted", body: `{}`},
		{name: "array rejected", body: `[1,2]`, wantErr: true},
		{name: "scalar rejected", body: `"text"`, wantErr: true},
		{name: "null rejected", body: `null`, wantErr: true},
		{name: "malformed rejected", body: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FormBody([]byte(tt.body))
			if tt.wantErr {
				var vErr *types.ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Equal(t, "form_body", vErr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		formType  string
		body      string
		wantField string
	}{
		{
			name:     "ICS-201 with incident_name",
			formType: "ICS-201",
			body:     `{"incident_name":"Fire Emergency Alpha"}`,
		},
		{
			name:      "ICS-201 without incident_name",
			formType:  "ICS-201",
			body:      `{"prepared_by":"Ops"}`,
			wantField: "incident_name",
		},
		{
			name:     "ICS-202 with incident_objectives",
			formType: "ICS-202",
			body:     `{"incident_objectives":"Contain the fire"}`,
		},
		{
			name:      "ICS-202 without incident_objectives",
			formType:  "ICS-202",
			body:      `{}`,
			wantField: "incident_objectives",
		},
		{
			name:      "ICS-201 null body rejected",
			formType:  "ICS-201",
			body:      `null`,
			wantField: "form_body",
		},
		{
			name:     "other types have no requirement",
			formType: "ICS-213",
			body:     `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequiredFields(tt.formType, []byte(tt.body))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *types.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestFormComposesAllPredicates(t *testing.T) {
	assert.NoError(t, Form("Fire Emergency Alpha", "ICS-213", []byte(`{"to":"IC"}`)))
	assert.Error(t, Form("", "ICS-213", []byte(`{}`)))
	assert.Error(t, Form("Fire", "ICS-000", []byte(`{}`)))
	assert.Error(t, Form("Fire", "ICS-213", []byte(`[]`)))
	assert.Error(t, Form("Fire", "ICS-213", []byte(`null`)))
	assert.Error(t, Form("Fire", "ICS-201", []byte(`{}`)))
}
