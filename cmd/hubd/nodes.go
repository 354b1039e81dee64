package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/nethub/internal/presence"
	"github.com/alfredjeanlab/nethub/internal/ui"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:     "nodes",
	Short:   "Show which nodes have been sending events",
	GroupID: "events",
	Long: `Show nodes seen since the hub started, most recently active first.
Quiet nodes have sent nothing within the hub's HUB_NODE_QUIET_AFTER window.

Examples:
  hubd nodes
  hubd nodes --active-within 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		within, _ := cmd.Flags().GetDuration("active-within")

		nodes, err := hubClient.Nodes(context.Background(), within)
		if err != nil {
			return fmt.Errorf("listing nodes: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), nodes)
		}
		return printNodeTable(cmd.OutOrStdout(), nodes)
	},
}

func printNodeTable(out io.Writer, nodes []presence.Entry) error {
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No nodes seen yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tURL\tEVENTS\tLAST ACTION\tIDLE\tSTATUS")
	for _, n := range nodes {
		status := "active"
		if n.Quiet {
			status = "quiet"
		}
		idle := (time.Duration(n.IdleSecs) * time.Second).Round(time.Second)
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", n.NodeID, orDash(n.URL), n.EventCount, n.LastAction, idle, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	quiet := 0
	for _, n := range nodes {
		if n.Quiet {
			quiet++
		}
	}
	if quiet > 0 {
		fmt.Fprintln(out, ui.RenderWarn(fmt.Sprintf("%d of %d nodes quiet", quiet, len(nodes))))
	}
	return nil
}

func init() {
	nodesCmd.Flags().Duration("active-within", 0, "only nodes seen within this window")
}
