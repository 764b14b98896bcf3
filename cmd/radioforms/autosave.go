// Autosave commands manage the background saver and its crash-recovery
// journal. Each invocation is its own process, so "track" journals a
// change to the recovery directory and "flush" or "start" replays it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldworks/radioforms/internal/paths"
	"github.com/fieldworks/radioforms/pkg/types"
)

var autosaveCmd = &cobra.Command{
	Use:   "autosave",
	Short: "Manage the auto-save engine and its recovery journal",
}

var autosaveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the auto-save engine until interrupted",
	Long: `Start replays any crash-recovery journal entries into the database,
then runs the periodic saver in the foreground. Interrupt (Ctrl-C) to
flush pending changes and stop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := theApp.dispatcher.StartAutoSave(ctx); err != nil {
			return err
		}
		cfg := theApp.engine.Config()
		fmt.Printf("auto-save running (interval %ds); Ctrl-C to stop\n", cfg.SaveIntervalSeconds)

		<-ctx.Done()
		return theApp.dispatcher.StopAutoSave(cmd.Context())
	},
}

var autosaveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show auto-save configuration and journal state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := theApp.engine.Config()
		journaled, err := journalCount()
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(map[string]any{
				"config":    cfg,
				"last":      theApp.dispatcher.GetAutoSaveStatus(),
				"journaled": journaled,
			})
		}
		fmt.Printf("Interval:        %ds\n", cfg.SaveIntervalSeconds)
		fmt.Printf("Max pending:     %d\n", cfg.MaxPendingChanges)
		fmt.Printf("Crash recovery:  %t\n", cfg.CrashRecovery)
		fmt.Printf("Journaled:       %d\n", journaled)
		fmt.Printf("Last state:      %s\n", theApp.dispatcher.GetAutoSaveStatus().State)
		return nil
	},
}

var (
	trackData    string
	trackFile    string
	trackVersion int64
)

var autosaveTrackCmd = &cobra.Command{
	Use:   "track <id>",
	Short: "Journal an edited form body for a later flush",
	Long: `Track records an edited body in the crash-recovery journal without
touching the database. A later "autosave flush" or "autosave start"
persists it. With crash recovery disabled the change is saved
immediately instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		body, err := readBody(trackData, trackFile)
		if err != nil {
			return err
		}

		if err := theApp.dispatcher.StartAutoSave(cmd.Context()); err != nil {
			return err
		}

		changed, err := theApp.dispatcher.TrackFormChange(cmd.Context(), id, body, trackVersion)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("Form %d unchanged\n", id)
			return theApp.dispatcher.StopAutoSave(cmd.Context())
		}

		if !theApp.engine.Config().CrashRecovery {
			if err := theApp.dispatcher.StopAutoSave(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Saved form %d\n", id)
			return nil
		}
		fmt.Printf("Journaled change for form %d\n", id)
		return nil
	},
}

var autosavePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Count journaled changes awaiting a flush",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		journaled, err := journalCount()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]int{"pending": journaled})
		}
		fmt.Println(journaled)
		return nil
	},
}

var autosaveFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Replay journaled changes into the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := journalCount()
		if err != nil {
			return err
		}

		if err := theApp.dispatcher.StartAutoSave(cmd.Context()); err != nil {
			return err
		}
		if err := theApp.dispatcher.StopAutoSave(cmd.Context()); err != nil {
			return err
		}

		after, err := journalCount()
		if err != nil {
			return err
		}
		fmt.Printf("Flushed %d journaled change(s), %d remaining\n", before-after, after)
		return nil
	},
}

var (
	cfgInterval      int
	cfgMaxPending    int
	cfgCrashRecovery bool
)

var autosaveConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Validate and persist auto-save settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.AutoSaveConfig{
			SaveIntervalSeconds: cfgInterval,
			MaxPendingChanges:   cfgMaxPending,
			CrashRecovery:       cfgCrashRecovery,
		}
		if err := theApp.dispatcher.ConfigureAutoSave(cfg); err != nil {
			return err
		}
		if err := writeAutoSaveConfig(appConfigDir, cfg); err != nil {
			return err
		}
		fmt.Println("auto-save configuration saved")
		return nil
	},
}

// journalCount counts sidecar files in the recovery directory.
func journalCount() (int, error) {
	entries, err := os.ReadDir(paths.RecoveryDir(theApp.dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read recovery dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

func init() {
	autosaveTrackCmd.Flags().StringVar(&trackData, "data", "", "form body as a JSON object")
	autosaveTrackCmd.Flags().StringVar(&trackFile, "file", "", "read form body from file (- for stdin)")
	autosaveTrackCmd.Flags().Int64Var(&trackVersion, "version", 0, "client change version")

	defaults := types.DefaultAutoSaveConfig()
	autosaveConfigureCmd.Flags().IntVar(&cfgInterval, "interval", defaults.SaveIntervalSeconds, "save interval in seconds (min 10)")
	autosaveConfigureCmd.Flags().IntVar(&cfgMaxPending, "max-pending", defaults.MaxPendingChanges, "max tracked changes before forced flush (min 1)")
	autosaveConfigureCmd.Flags().BoolVar(&cfgCrashRecovery, "crash-recovery", defaults.CrashRecovery, "write crash-recovery journal entries")

	autosaveCmd.AddCommand(autosaveStartCmd)
	autosaveCmd.AddCommand(autosaveStatusCmd)
	autosaveCmd.AddCommand(autosaveTrackCmd)
	autosaveCmd.AddCommand(autosavePendingCmd)
	autosaveCmd.AddCommand(autosaveFlushCmd)
	autosaveCmd.AddCommand(autosaveConfigureCmd)
}
