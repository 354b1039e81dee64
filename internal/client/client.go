// Package client provides the interface CLI commands and nodes use to talk to
// the hub, and an HTTP/JSON implementation of it.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/nethub/internal/hub"
	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/presence"
)

// HubClient is the interface that hubd CLI commands use to communicate with
// the hub server.
type HubClient interface {
	// PushEvent sends one event as a node would.
	PushEvent(ctx context.Context, ev *hub.WireEvent) (*PushEventResponse, error)

	// ListEvents reads a page of the event log.
	ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error)

	// Actions lists the event types the hub accepts.
	Actions(ctx context.Context) ([]string, error)

	// Nodes lists nodes seen since the hub started. A positive activeWithin
	// drops nodes idle for longer.
	Nodes(ctx context.Context, activeWithin time.Duration) ([]presence.Entry, error)

	Health(ctx context.Context) (string, error)

	Close() error
}

// PushEventResponse is the hub's acknowledgement of a pushed event. A
// non-empty ApplyError means the event was stored but its side effects
// failed; resending it would store a duplicate.
type PushEventResponse struct {
	ID         int64  `json:"id"`
	ApplyError string `json:"apply_error,omitempty"`
}

// ListEventsRequest holds filters and paging for ListEvents. Zero values are
// omitted from the query, letting the server apply its defaults.
type ListEventsRequest struct {
	NodeID     int64
	ActionName string
	Search     string
	Page       int
	PerPage    int
}

// ListEventsResponse is one page of the event log.
type ListEventsResponse struct {
	Events  []*model.Record `json:"events"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}
