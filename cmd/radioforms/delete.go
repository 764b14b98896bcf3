// Delete command removes a form by id.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldworks/radioforms/pkg/types"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a form by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		deleted, err := theApp.dispatcher.DeleteForm(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("form %d: %w", id, types.ErrNotFound)
		}
		fmt.Printf("Deleted form %d\n", id)
		return nil
	},
}
