// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/fieldworks/radioforms/internal/sqlite"
)

// DefaultDataDirName is the CWD-relative data directory used when no
// override is active.
const DefaultDataDirName = ".radioforms-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "RADIOFORMS_CONFIG_DIR"
	EnvDataDir   = "RADIOFORMS_DATA_DIR"
)

// RecoveryDirName is the auto-save sidecar directory under the data dir.
const RecoveryDirName = "recovery"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/radioforms (fallback ~/.config/radioforms)
// macOS:   ~/Library/Application Support/radioforms
// Windows: %APPDATA%/radioforms
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "radioforms"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "radioforms"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "radioforms"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > RADIOFORMS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > RADIOFORMS_DATA_DIR env > CWD default.
//
// The CWD-relative default ($(CWD)/.radioforms-db) keeps the whole
// installation next to the working directory for field laptops with no
// persistent home.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DBPath returns the database file location under dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, sqlite.DBFileName)
}

// RecoveryDir returns the auto-save sidecar directory under dataDir.
func RecoveryDir(dataDir string) string {
	return filepath.Join(dataDir, RecoveryDirName)
}
