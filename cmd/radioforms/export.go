// Export, import, and radio-wire encoding commands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportID  int64
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export forms as JSON",
	Long: `Export writes all forms inside a versioned metadata envelope, or a
single bare form record with --id. Output goes to stdout unless --out
names a file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload string
		var err error
		if exportID > 0 {
			payload, err = theApp.dispatcher.ExportFormJSON(cmd.Context(), exportID)
		} else {
			payload, err = theApp.dispatcher.ExportFormsJSON(cmd.Context())
		}
		if err != nil {
			return err
		}

		if exportOut == "" {
			fmt.Println(payload)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(payload), 0o644); err != nil {
			return fmt.Errorf("write export file: %w", err)
		}
		fmt.Printf("Exported to %s\n", exportOut)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import forms from a JSON export",
	Long: `Import reads a versioned export envelope and inserts its records with
fresh ids, preserving status, body, and timestamps. Records matching an
existing incident name and form type are skipped. Use - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload []byte
		var err error
		if args[0] == "-" {
			payload, err = io.ReadAll(os.Stdin)
		} else {
			payload, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read import payload: %w", err)
		}

		count, err := theApp.dispatcher.ImportFormsJSON(cmd.Context(), string(payload))
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d form(s)\n", count)
		return nil
	},
}

var desCmd = &cobra.Command{
	Use:   "des <id>",
	Short: "Encode a form as an ICS-DES radio frame",
	Long: `Des renders a form as a compact ICS-DES frame suitable for voice or
packet radio transmission, e.g. 213{24~IC|25~Ops|...}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		frame, err := theApp.dispatcher.ExportFormICSDES(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(frame)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportID, "id", 0, "export a single form by id")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write output to file instead of stdout")
}
