package types

import "time"

// Auto-save configuration bounds and defaults.
const (
	DefaultSaveIntervalSeconds = 30
	MinSaveIntervalSeconds     = 10
	DefaultMaxPendingChanges   = 100
	MinMaxPendingChanges       = 1
)

// AutoSaveConfig bounds the background saver: how often it flushes, how
// many dirty forms it may track before forcing a flush, and whether
// crash-recovery sidecars are written and replayed.
type AutoSaveConfig struct {
	SaveIntervalSeconds int
	MaxPendingChanges   int
	CrashRecovery       bool
}

// DefaultAutoSaveConfig returns the default auto-save configuration:
// 30 second interval, 100 pending changes, crash recovery enabled.
func DefaultAutoSaveConfig() AutoSaveConfig {
	return AutoSaveConfig{
		SaveIntervalSeconds: DefaultSaveIntervalSeconds,
		MaxPendingChanges:   DefaultMaxPendingChanges,
		CrashRecovery:       true,
	}
}

// Validate checks the configuration against its bounds.
func (c AutoSaveConfig) Validate() error {
	if c.SaveIntervalSeconds < MinSaveIntervalSeconds {
		return &ConfigError{
			Field: "save_interval_seconds",
			Msg:   "must be at least 10 seconds",
		}
	}
	if c.MaxPendingChanges < MinMaxPendingChanges {
		return &ConfigError{
			Field: "max_pending_changes",
			Msg:   "must be at least 1",
		}
	}
	return nil
}

// SaveInterval returns the flush interval as a time.Duration.
func (c AutoSaveConfig) SaveInterval() time.Duration {
	return time.Duration(c.SaveIntervalSeconds) * time.Second
}
