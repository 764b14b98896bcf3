package autosave

import "time"

// Status states reported for UI feedback. The engine keeps only the
// last-operation status; it is volatile and never persisted.
const (
	StateIdle   = "idle"
	StateSaving = "saving"
	StateSaved  = "saved"
	StateFailed = "failed"
)

// Status describes the engine's last save operation. FormID is set for
// saving, saved, and failed; At only for saved; Reason only for failed.
type Status struct {
	State  string    `json:"state"`
	FormID int64     `json:"form_id,omitempty"`
	At     time.Time `json:"at,omitempty"`
	Reason string    `json:"reason,omitempty"`
}
