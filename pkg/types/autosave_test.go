package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutoSaveConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       AutoSaveConfig
		wantField string
	}{
		{
			name: "defaults are valid",
			cfg:  DefaultAutoSaveConfig(),
		},
		{
			name: "minimum interval accepted",
			cfg:  AutoSaveConfig{SaveIntervalSeconds: 10, MaxPendingChanges: 1},
		},
		{
			name:      "interval below minimum rejected",
			cfg:       AutoSaveConfig{SaveIntervalSeconds: 9, MaxPendingChanges: 100},
			wantField: "save_interval_seconds",
		},
		{
			name:      "zero pending changes rejected",
			cfg:       AutoSaveConfig{SaveIntervalSeconds: 30, MaxPendingChanges: 0},
			wantField: "max_pending_changes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestAutoSaveConfigSaveInterval(t *testing.T) {
	cfg := DefaultAutoSaveConfig()
	assert.Equal(t, 30*time.Second, cfg.SaveInterval())
	assert.True(t, cfg.CrashRecovery)
}
