package events

import (
	"context"
	"time"
)

// Subject constants. Nodes publish wire events under TopicIncomingPrefix
// followed by a node-chosen token, e.g. "network.incoming.node-7".
const (
	TopicIncomingPrefix = "network.incoming."
	TopicIncoming       = TopicIncomingPrefix + ">"

	TopicEventRecorded = "network.event.recorded"
	TopicApplyFailed   = "network.event.apply_failed"
)

// Event types

// EventRecorded is published after an event is appended to the log.
type EventRecorded struct {
	ID        int64     `json:"id"`
	NodeID    int64     `json:"node_id"`
	NodeURL   string    `json:"node_url,omitempty"`
	Action    string    `json:"action"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ApplyFailed is published when a persisted event's side effects could not
// be applied. The event stays in the log.
type ApplyFailed struct {
	ID     int64  `json:"id"`
	NodeID int64  `json:"node_id"`
	Action string `json:"action"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
