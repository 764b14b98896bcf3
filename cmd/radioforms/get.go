// Get command fetches one form by id.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldworks/radioforms/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a form by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		form, err := theApp.dispatcher.GetForm(cmd.Context(), id)
		if err != nil {
			return err
		}
		if form == nil {
			return fmt.Errorf("form %d: %w", id, types.ErrNotFound)
		}
		return printForm(form)
	},
}
