package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/nethub/internal/client"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "List the network event log",
	GroupID: "events",
	Long: `List events newest first with optional filters.

Examples:
  hubd events
  hubd events --node 3 --action reader_registered
  hubd events --search example.com --page 2 --per-page 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetInt64("node")
		action, _ := cmd.Flags().GetString("action")
		search, _ := cmd.Flags().GetString("search")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		resp, err := hubClient.ListEvents(context.Background(), &client.ListEventsRequest{
			NodeID:     nodeID,
			ActionName: action,
			Search:     search,
			Page:       page,
			PerPage:    perPage,
		})
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		return printEventTable(cmd.OutOrStdout(), resp)
	},
}

func init() {
	eventsCmd.Flags().Int64("node", 0, "only events from this node ID")
	eventsCmd.Flags().String("action", "", "only events with this action name")
	eventsCmd.Flags().String("search", "", "substring match on email, action or data")
	eventsCmd.Flags().Int("page", 0, "page number (1-based; server default when 0)")
	eventsCmd.Flags().Int("per-page", 0, "events per page (server default when 0)")
}
