package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/nethub/internal/events"
	"github.com/alfredjeanlab/nethub/internal/hub"
	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/ui"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:     "push",
	Short:   "Push an event to the hub as a node would",
	GroupID: "events",
	Long: `Push a single event to the hub. By default the event is sent to the
HTTP API and the stored ID is printed. With --nats the event is published on
the ingest subject instead and no acknowledgement is returned.

Examples:
  hubd push --node-id 3 --node-url https://a.example --action reader_registered \
    --data '{"email":"reader@example.com","user_id":"42"}'
  hubd push --node-id 3 --action donation_new --data '{"amount":5}' --nats nats://localhost:4222`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetInt64("node-id")
		nodeURL, _ := cmd.Flags().GetString("node-url")
		action, _ := cmd.Flags().GetString("action")
		data, _ := cmd.Flags().GetString("data")
		ts, _ := cmd.Flags().GetInt64("timestamp")
		natsURL, _ := cmd.Flags().GetString("nats")

		if action == "" {
			return fmt.Errorf("--action is required")
		}
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("--data is not valid JSON")
		}

		ev := &hub.WireEvent{
			Node:      model.Node{ID: nodeID, URL: nodeURL},
			Action:    action,
			Data:      json.RawMessage(data),
			Timestamp: ts,
		}

		if natsURL != "" {
			return publishEvent(cmd, natsURL, ev)
		}

		resp, err := hubClient.PushEvent(context.Background(), ev)
		if err != nil {
			return fmt.Errorf("pushing event: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored event %d\n", resp.ID)
		if resp.ApplyError != "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderWarn("Do not resend: the event is already in the log."))
			return fmt.Errorf("event %d stored but not applied: %s", resp.ID, resp.ApplyError)
		}
		return nil
	},
}

func publishEvent(cmd *cobra.Command, natsURL string, ev *hub.WireEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	pub, err := events.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}
	defer pub.Close()

	subject := events.TopicIncomingPrefix + strconv.FormatInt(ev.Node.ID, 10)
	if err := pub.PublishRaw(subject, payload); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published to %s\n", subject)
	return nil
}

func init() {
	pushCmd.Flags().Int64("node-id", 0, "originating node ID")
	pushCmd.Flags().String("node-url", "", "originating node URL")
	pushCmd.Flags().String("action", "", "action name")
	pushCmd.Flags().String("data", "{}", "event data as a JSON object")
	pushCmd.Flags().Int64("timestamp", 0, "unix timestamp (receive time when 0)")
	pushCmd.Flags().String("nats", activeRemoteNATSURL(), "publish on NATS instead of the HTTP API")
}
