package types

import (
	"errors"
	"fmt"
)

// Lifecycle and integrity errors shared across components.
var (
	ErrAlreadyInitialized = errors.New("storage engine is already initialized")
	ErrNotInitialized     = errors.New("storage engine is not initialized")
	ErrAlreadyRunning     = errors.New("auto-save engine is already running")
	ErrNotRunning         = errors.New("auto-save engine is not running")
	ErrNotFound           = errors.New("form not found")
	ErrIntegrityFailed    = errors.New("backup integrity check failed")
)

// ValidationError reports a rejected input: the offending field and an
// operator-facing cause.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Msg)
}

// TransitionError reports a status change not permitted by the state
// machine.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ConfigError reports an out-of-bounds auto-save configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Msg)
}
