package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/radioforms/pkg/types"
)

func desForm(formType, body string, created time.Time) *types.Form {
	return &types.Form{
		ID:           1,
		IncidentName: "Fire Emergency Alpha",
		FormType:     formType,
		Status:       types.StatusDraft,
		FormBody:     json.RawMessage(body),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestEncodeICSDES213(t *testing.T) {
	created := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	form := desForm("ICS-213", `{"to":"IC|Alpha","from":"Ops","message":"Meet at [north]"}`, created)

	got, err := EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `213{24~IC\/Alpha|25~Ops|26~Meet at \(north\)|2~20250614|3~0930}`, got)
}

func TestEncodeICSDES213MissingFields(t *testing.T) {
	created := time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC)
	form := desForm("ICS-213", `{"to":"IC"}`, created)

	got, err := EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `213{24~IC|25~Unknown|26~Unknown|2~20250102|3~2359}`, got)
}

func TestEncodeICSDES201(t *testing.T) {
	created := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	form := desForm("ICS-201", `{"incident_name":"Fire Alpha","prepared_by":"J. Doe"}`, created)

	got, err := EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `201{1~Fire Alpha|5~Unknown|11~J. Doe}`, got)
}

func TestEncodeICSDESDefaultVocabulary(t *testing.T) {
	created := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)

	form := desForm("ICS-214", `{"incident_name":"Night Shift"}`, created)
	got, err := EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `214{1~Night Shift}`, got)

	// Without the body key the field is Unknown.
	form = desForm("ICS-214", `{}`, created)
	got, err = EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `214{1~Unknown}`, got)

	// Letter-suffixed types keep their suffix in the frame.
	form = desForm("ICS-205A", `{"incident_name":"Comms"}`, created)
	got, err = EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `205A{1~Comms}`, got)
}

func TestEscapeDESOrder(t *testing.T) {
	assert.Equal(t, `a\/b\:c\(d\)e`, escapeDES("a|b~c[d]e"))
	assert.Equal(t, "plain", escapeDES("plain"))
}

func TestEncodeICSDESTildeEscapedInValue(t *testing.T) {
	created := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	form := desForm("ICS-213", `{"to":"IC~1","from":"Ops","message":"ok"}`, created)

	got, err := EncodeICSDES(form)
	require.NoError(t, err)
	assert.Equal(t, `213{24~IC\:1|25~Ops|26~ok|2~20250614|3~0930}`, got)
}
