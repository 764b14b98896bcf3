// Package validation provides the pure predicates applied before any
// write: incident name shape, form-type membership, form-body JSON shape,
// and per-form-type required fields. All failures are
// *types.ValidationError values carrying the field name and an
// operator-facing cause.
package validation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/fieldworks/radioforms/pkg/types"
)

// MaxIncidentNameLength is the character (rune) limit on incident names.
const MaxIncidentNameLength = 100

// requiredFields maps form types to the top-level keys their bodies must
// contain. Types absent from the map have no additional requirement.
var requiredFields = map[string][]string{
	"ICS-201": {"incident_name"},
	"ICS-202": {"incident_objectives"},
}

// IncidentName checks that the name is non-empty after trimming and at
// most 100 characters.
func IncidentName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &types.ValidationError{Field: "incident_name", Msg: "must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxIncidentNameLength {
		return &types.ValidationError{Field: "incident_name", Msg: "must be at most 100 characters"}
	}
	return nil
}

// FormType checks membership in the ICS form-type vocabulary.
// Matching is case-sensitive.
func FormType(ft string) error {
	if !types.ValidFormType(ft) {
		return &types.ValidationError{Field: "form_type", Msg: "unknown ICS form type"}
	}
	return nil
}

// FormBody checks that the body parses as a JSON object. Arrays,
// scalars, and null are rejected.
func FormBody(body []byte) error {
	if _, err := bodyObject(body); err != nil {
		return err
	}
	return nil
}

// RequiredFields checks the per-form-type required top-level keys.
func RequiredFields(formType string, body []byte) error {
	required, ok := requiredFields[formType]
	if !ok {
		return nil
	}

	obj, err := bodyObject(body)
	if err != nil {
		return err
	}
	for _, key := range required {
		if _, present := obj[key]; !present {
			return &types.ValidationError{
				Field: key,
				Msg:   "required field for " + formType + " is missing",
			}
		}
	}
	return nil
}

// bodyObject parses the body and requires a JSON object at the top
// level.
func bodyObject(body []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &types.ValidationError{Field: "form_body", Msg: "must be a JSON object"}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &types.ValidationError{Field: "form_body", Msg: "must be a JSON object"}
	}
	return obj, nil
}

// Form composes all predicates over a full record: incident name, form
// type, body shape, and per-type required fields.
func Form(incidentName, formType string, body []byte) error {
	if err := IncidentName(incidentName); err != nil {
		return err
	}
	if err := FormType(formType); err != nil {
		return err
	}
	if err := FormBody(body); err != nil {
		return err
	}
	return RequiredFields(formType, body)
}
