// Package types defines the form record model, the form-type and status
// vocabularies, auto-save configuration, and the error kinds shared by
// every component of the core.
package types
