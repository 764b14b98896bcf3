package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "keys sorted lexicographically",
			in:   `{"b":1,"a":2}`,
			want: `{"a":2,"b":1}`,
		},
		{
			name: "whitespace stripped",
			in:   "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}",
			want: `{"a":1,"b":[1,2]}`,
		},
		{
			name: "nested objects sorted",
			in:   `{"z":{"y":1,"x":2},"a":true}`,
			want: `{"a":true,"z":{"x":2,"y":1}}`,
		},
		{
			name: "array order preserved",
			in:   `{"a":[3,1,2]}`,
			want: `{"a":[3,1,2]}`,
		},
		{
			name:    "malformed input rejected",
			in:      `{"a":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]byte(`{"to":"IC","from":"Ops"}`))
	require.NoError(t, err)
	b, err := Fingerprint([]byte("{ \"from\": \"Ops\",\n \"to\": \"IC\" }"))
	require.NoError(t, err)
	assert.Equal(t, a, b, "equivalent documents share a fingerprint")

	c, err := Fingerprint([]byte(`{"to":"IC","from":"Logistics"}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "hex-encoded SHA-256")
}
