package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/nethub/internal/ui"
	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:     "actions",
	Short:   "List the actions the hub accepts",
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		actions, err := hubClient.Actions(context.Background())
		if err != nil {
			return fmt.Errorf("listing actions: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), actions)
		}
		for _, a := range actions {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderAccent(a))
		}
		return nil
	},
}
