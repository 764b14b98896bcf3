// Root command for the radioforms CLI.
package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fieldworks/radioforms/internal/paths"
)

// Exit codes reported by main.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks argument errors so main can map them to exitUserError.
var errUsage = errors.New("usage error")

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

var rootCmd = &cobra.Command{
	Use:     "radioforms",
	Short:   "RadioForms manages FEMA ICS forms fully offline",
	Version: version,
	Long: `RadioForms is a single-binary manager for FEMA Incident Command System
forms. Forms live in one local SQLite file that travels with the binary;
no network is ever required.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		appLogger = newLogger(cfg.GetString(cfgKeyLogLevel))
		appAutoSave = autoSaveConfigFrom(cfg)
		appConfigDir = configDir

		theApp, err = openApp(cmd.Context())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if theApp == nil {
			return nil
		}
		return theApp.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(transitionsCmd)
	rootCmd.AddCommand(canEditCmd)
	rootCmd.AddCommand(autosaveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(desCmd)
	rootCmd.AddCommand(backupCmd)
}

// resolveDataDir returns the data directory following the precedence
// --data-dir flag > config.yaml data_dir > RADIOFORMS_DATA_DIR env >
// default $(CWD)/.radioforms-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence --config-dir flag > RADIOFORMS_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
