// Update command replaces a form's body.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updateData string
	updateFile string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a form's JSON body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		body, err := readBody(updateData, updateFile)
		if err != nil {
			return err
		}

		if err := theApp.dispatcher.UpdateForm(cmd.Context(), id, body); err != nil {
			return err
		}
		fmt.Printf("Updated form %d\n", id)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateData, "data", "", "form body as a JSON object")
	updateCmd.Flags().StringVar(&updateFile, "file", "", "read form body from file (- for stdin)")
}
