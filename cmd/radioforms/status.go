// Status command moves a form through the status state machine.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id> <new-status>",
	Short: "Change a form's status",
	Long: `Status moves a form along the lifecycle draft -> completed -> final ->
archived. A completed form may return to draft for correction; archived
is terminal.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		newStatus := strings.TrimSpace(args[1])

		if err := theApp.dispatcher.UpdateFormStatus(cmd.Context(), id, newStatus); err != nil {
			return err
		}
		fmt.Printf("Form %d is now %s\n", id, newStatus)
		return nil
	},
}

var transitionsCmd = &cobra.Command{
	Use:   "transitions <id>",
	Short: "List the statuses a form may move to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		next, err := theApp.dispatcher.GetAvailableTransitions(cmd.Context(), id)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(next)
		}
		if len(next) == 0 {
			fmt.Println("(none)")
			return nil
		}
		fmt.Println(strings.Join(next, ", "))
		return nil
	},
}

var canEditCmd = &cobra.Command{
	Use:   "can-edit <id>",
	Short: "Report whether a form accepts body edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		editable, err := theApp.dispatcher.CanEditForm(cmd.Context(), id)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]bool{"can_edit": editable})
		}
		fmt.Println(editable)
		return nil
	},
}
