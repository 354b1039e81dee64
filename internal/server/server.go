package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/nethub/internal/eventlog"
	"github.com/alfredjeanlab/nethub/internal/hub"
	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/presence"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NodeRoster lists recently active nodes.
type NodeRoster interface {
	Nodes(activeWithin time.Duration) []presence.Entry
}

// Options configures a HubServer. Zero values select defaults; a nil Nodes
// leaves GET /v1/nodes unregistered.
type Options struct {
	DefaultPageSize int
	Health          HealthChecker
	Nodes           NodeRoster
	Logger          *slog.Logger
}

// HubServer exposes the hub pipeline and event log over HTTP.
type HubServer struct {
	processor       *hub.Processor
	events          *eventlog.Store
	registry        *incoming.Registry
	health          HealthChecker
	nodes           NodeRoster
	logger          *slog.Logger
	defaultPageSize int
}

// NewHubServer returns a server that ingests through p and reads from log.
func NewHubServer(p *hub.Processor, log *eventlog.Store, registry *incoming.Registry, opts Options) *HubServer {
	s := &HubServer{
		processor:       p,
		events:          log,
		registry:        registry,
		health:          opts.Health,
		nodes:           opts.Nodes,
		logger:          opts.Logger,
		defaultPageSize: opts.DefaultPageSize,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.defaultPageSize <= 0 {
		s.defaultPageSize = 10
	}
	return s
}
