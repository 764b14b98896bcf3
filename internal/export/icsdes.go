package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldworks/radioforms/pkg/types"
)

// UnknownValue is emitted for fields the form body does not carry.
const UnknownValue = "Unknown"

// desField pairs a wire field id with the body key it reads.
type desField struct {
	id  string
	key string
}

// desFields is the fixed field-id vocabulary per form type. Types not
// listed encode incident_name only.
var desFields = map[string][]desField{
	"ICS-213": {
		{id: "24", key: "to"},
		{id: "25", key: "from"},
		{id: "26", key: "message"},
	},
	"ICS-201": {
		{id: "1", key: "incident_name"},
		{id: "5", key: "incident_number"},
		{id: "11", key: "prepared_by"},
	},
}

// desDefaultFields applies to form types without a dedicated vocabulary.
var desDefaultFields = []desField{
	{id: "1", key: "incident_name"},
}

// EncodeICSDES renders a form as a one-line ICS-DES frame:
// <NNN>{<field-id>~<value>|…} where NNN is the numeric part of the form
// type. The encoding is lossy; only the per-type field picks travel.
// ICS-213 frames carry the record's creation date and time in fields
// 2 (YYYYMMDD) and 3 (HHMM), both UTC.
func EncodeICSDES(f *types.Form) (string, error) {
	var body map[string]any
	if err := json.Unmarshal(f.FormBody, &body); err != nil {
		return "", fmt.Errorf("parsing form %d body: %w", f.ID, err)
	}

	fields, ok := desFields[f.FormType]
	if !ok {
		fields = desDefaultFields
	}

	parts := make([]string, 0, len(fields)+2)
	for _, fd := range fields {
		parts = append(parts, fd.id+"~"+escapeDES(fieldValue(body, fd.key)))
	}
	if f.FormType == "ICS-213" {
		created := f.CreatedAt.UTC()
		parts = append(parts,
			"2~"+created.Format("20060102"),
			"3~"+created.Format("1504"),
		)
	}

	num := strings.TrimPrefix(f.FormType, "ICS-")
	return num + "{" + strings.Join(parts, "|") + "}", nil
}

// fieldValue extracts a body value as text, or UnknownValue when the
// key is absent or null. Non-string values keep their JSON rendering.
func fieldValue(body map[string]any, key string) string {
	v, ok := body[key]
	if !ok || v == nil {
		return UnknownValue
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return UnknownValue
	}
	return string(raw)
}

// escapeDES escapes the frame's structural characters inside a value.
// The replacements are applied in order: | ~ [ ].
func escapeDES(s string) string {
	s = strings.ReplaceAll(s, "|", `\/`)
	s = strings.ReplaceAll(s, "~", `\:`)
	s = strings.ReplaceAll(s, "[", `\(`)
	s = strings.ReplaceAll(s, "]", `\)`)
	return s
}
