// Backup commands snapshot and restore the database file.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the database file",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <dest>",
	Short: "Copy the database to dest and write a .meta sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := theApp.dispatcher.CreateBackup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <src>",
	Short: "Replace the live database from a backup",
	Long: `Restore verifies the backup against its .meta sidecar, snapshots the
current database alongside it, and copies the backup over the live
file. The database is closed for the copy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The pool must be quiescent before the file is replaced.
		if err := theApp.backend.Close(); err != nil {
			return err
		}

		summary, err := theApp.dispatcher.RestoreBackup(args[0])
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List backup files in a directory (default: data dir)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := theApp.dataDir
		if len(args) == 1 {
			dir = args[0]
		}

		entries, err := theApp.dispatcher.ListBackups(dir)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("(no backups)")
			return nil
		}
		for _, e := range entries {
			marker := " "
			if e.HasMetadata {
				marker = "*"
			}
			fmt.Printf("%s %s  %d bytes  %s\n", marker, e.Path, e.SizeBytes, e.ModTime.Format(time.RFC3339))
		}
		return nil
	},
}

var backupInfoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show a backup's metadata sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := theApp.dispatcher.GetBackupInfo(args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(info)
		}
		fmt.Printf("Path:       %s\n", info.Path)
		fmt.Printf("Size:       %d bytes\n", info.SizeBytes)
		if info.Metadata == nil {
			fmt.Println("Metadata:   (none)")
			return nil
		}
		fmt.Printf("Backup ID:  %s\n", info.Metadata.BackupID)
		fmt.Printf("Created:    %s\n", info.Metadata.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Forms:      %d\n", info.Metadata.FormCount)
		fmt.Printf("Checksum:   %s\n", info.Metadata.Checksum)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupInfoCmd)
}
