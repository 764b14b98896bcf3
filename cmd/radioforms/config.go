// Config loading for the radioforms CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/fieldworks/radioforms/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir       = "data_dir"
	cfgKeyLogLevel      = "log_level"
	cfgKeyInterval      = "auto_save.interval_seconds"
	cfgKeyMaxPending    = "auto_save.max_pending"
	cfgKeyCrashRecovery = "auto_save.crash_recovery"

	defaultLogLevel = "info"
)

// Populated by PersistentPreRunE before any subcommand runs.
var (
	appLogger    *slog.Logger
	appAutoSave  types.AutoSaveConfig
	appConfigDir string
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# RadioForms configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Log level: debug, info, warn, error
log_level: info

auto_save:
  interval_seconds: 30
  max_pending: 100
  crash_recovery: true
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	defaults := types.DefaultAutoSaveConfig()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyInterval, defaults.SaveIntervalSeconds)
	v.SetDefault(cfgKeyMaxPending, defaults.MaxPendingChanges)
	v.SetDefault(cfgKeyCrashRecovery, defaults.CrashRecovery)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// autoSaveConfigFrom extracts the auto-save settings from loaded config.
func autoSaveConfigFrom(v *viper.Viper) types.AutoSaveConfig {
	return types.AutoSaveConfig{
		SaveIntervalSeconds: v.GetInt(cfgKeyInterval),
		MaxPendingChanges:   v.GetInt(cfgKeyMaxPending),
		CrashRecovery:       v.GetBool(cfgKeyCrashRecovery),
	}
}

// writeAutoSaveConfig persists the auto-save settings back to config.yaml.
func writeAutoSaveConfig(configDir string, cfg types.AutoSaveConfig) error {
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	v.Set(cfgKeyInterval, cfg.SaveIntervalSeconds)
	v.Set(cfgKeyMaxPending, cfg.MaxPendingChanges)
	v.Set(cfgKeyCrashRecovery, cfg.CrashRecovery)
	return v.WriteConfigAs(filepath.Join(configDir, configFileExt))
}

// newLogger builds the application logger at the configured level.
// Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
