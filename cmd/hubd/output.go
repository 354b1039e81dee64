package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/alfredjeanlab/nethub/internal/client"
	"github.com/alfredjeanlab/nethub/internal/ui"
)

// maxDataWidth truncates the DATA column in table output.
const maxDataWidth = 60

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printEventTable(out io.Writer, resp *client.ListEventsResponse) error {
	if len(resp.Events) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNODE\tACTION\tEMAIL\tTIMESTAMP\tDATA")
	for _, e := range resp.Events {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.NodeID,
			e.ActionName,
			orDash(e.Email),
			e.Timestamp.Format("2006-01-02 15:04:05"),
			truncate(string(e.Data), maxDataWidth),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, ui.RenderMuted(fmt.Sprintf("page %d, %d per page, %d total", resp.Page, resp.PerPage, resp.Total)))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
