package types

import (
	"encoding/json"
	"time"
)

// FormTypes lists the recognized FEMA ICS form codes. Matching is
// case-sensitive; "ics-213" is not a valid form type.
var FormTypes = []string{
	"ICS-201", "ICS-202", "ICS-203", "ICS-204", "ICS-205",
	"ICS-205A", "ICS-206", "ICS-207", "ICS-208", "ICS-209",
	"ICS-210", "ICS-211", "ICS-213", "ICS-214", "ICS-215",
	"ICS-215A", "ICS-218", "ICS-220", "ICS-221", "ICS-225",
}

// validFormTypes is the membership set built from FormTypes.
var validFormTypes = func() map[string]bool {
	m := make(map[string]bool, len(FormTypes))
	for _, ft := range FormTypes {
		m[ft] = true
	}
	return m
}()

// ValidFormType reports whether ft is one of the recognized ICS form codes.
func ValidFormType(ft string) bool {
	return validFormTypes[ft]
}

// Form is the single persistent entity of the application: one authored
// ICS form. IncidentName and FormType are immutable after creation; all
// form fields live in FormBody, which is opaque to the store.
type Form struct {
	ID           int64           `json:"id"`
	IncidentName string          `json:"incident_name"`
	FormType     string          `json:"form_type"`
	Status       string          `json:"status"`
	FormBody     json.RawMessage `json:"form_body"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CanEdit reports whether the form may still be edited in its current
// status. Final and archived forms are read-only.
func (f *Form) CanEdit() bool {
	return CanEdit(f.Status)
}
