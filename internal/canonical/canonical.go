// Package canonical renders JSON in a canonical form (lexicographic object
// keys, no insignificant whitespace) and derives SHA-256 fingerprints from
// it. Equal fingerprints imply semantically equal documents.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// JSON returns the canonical rendering of the given JSON document.
// Decoding into Go values and re-marshaling sorts object keys at every
// nesting level and drops insignificant whitespace.
func JSON(doc []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	return out, nil
}

// Fingerprint returns the hex-encoded SHA-256 of the canonical rendering
// of the given JSON document.
func Fingerprint(doc []byte) (string, error) {
	c, err := JSON(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(c)
	return hex.EncodeToString(sum[:]), nil
}
