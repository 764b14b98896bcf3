// List and search commands query forms newest first.
package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List forms, newest first (up to 100)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := theApp.dispatcher.GetAllForms(cmd.Context())
		if err != nil {
			return err
		}
		return printForms(list)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <substring>",
	Short: "Find forms whose incident name contains the substring",
	Long: `Search matches case-insensitively anywhere in the incident name.
Wildcard characters in the substring are taken literally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := theApp.dispatcher.SearchForms(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printForms(list)
	},
}
