// Save command creates a new draft form.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	saveIncident string
	saveType     string
	saveData     string
	saveFile     string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create a new draft form",
	Long: `Save validates the incident name, form type, and JSON body, then
persists a new form in draft status.

Example:
  radioforms save --incident "Pine Ridge Fire" --type ICS-213 --data '{"24":"IC"}'
  radioforms save --incident "Pine Ridge Fire" --type ICS-201 --file objectives.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readBody(saveData, saveFile)
		if err != nil {
			return err
		}

		id, err := theApp.dispatcher.SaveForm(cmd.Context(), saveIncident, saveType, body)
		if err != nil {
			return err
		}

		if flagJSON {
			form, err := theApp.dispatcher.GetForm(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(form)
		}
		fmt.Printf("Created form %d\n", id)
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveIncident, "incident", "", "incident name (required)")
	saveCmd.Flags().StringVar(&saveType, "type", "", "ICS form type, e.g. ICS-213 (required)")
	saveCmd.Flags().StringVar(&saveData, "data", "", "form body as a JSON object")
	saveCmd.Flags().StringVar(&saveFile, "file", "", "read form body from file (- for stdin)")

	saveCmd.MarkFlagRequired("incident")
	saveCmd.MarkFlagRequired("type")
}
