// Package hub runs incoming events through the hub's pipeline: classify the
// action, persist the event to the log, then apply its side effects.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/nethub/internal/events"
	"github.com/alfredjeanlab/nethub/internal/eventlog"
	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// WireEvent is an event as a node sends it.
type WireEvent struct {
	Node   model.Node `json:"node"`
	Action string     `json:"action"`
	// Data must be a JSON object; absent or null means {}.
	Data json.RawMessage `json:"data,omitempty"`
	// Timestamp is unix seconds; 0 means the time the hub received it.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// ApplyError reports that an event was persisted but its side effects failed.
// The event remains in the log with ID.
type ApplyError struct {
	ID     int64
	Action incoming.Action
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %s event %d: %v", e.Action, e.ID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Processor is the hub's event pipeline. It is safe for concurrent use.
type Processor struct {
	registry  *incoming.Registry
	log       *eventlog.Store
	directory store.Directory
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProcessor wires a processor. publisher may be nil.
func NewProcessor(registry *incoming.Registry, log *eventlog.Store, directory store.Directory, publisher events.Publisher, logger *slog.Logger) *Processor {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		registry:  registry,
		log:       log,
		directory: directory,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Process handles one wire event and returns the ID it was stored under.
//
// Unknown actions (*incoming.UnknownActionError) and malformed data
// (incoming.ErrInvalidPayload, *model.ValidationError) are rejected before
// anything is written. A store failure is returned as
// *eventlog.PersistenceError and nothing is applied. If the handler fails
// after the event is stored, Process returns the ID together with an
// *ApplyError.
func (p *Processor) Process(ctx context.Context, we WireEvent) (int64, error) {
	h, err := p.registry.Resolve(we.Action)
	if err != nil {
		return 0, err
	}

	ts := p.now().UTC()
	if we.Timestamp != 0 {
		ts = time.Unix(we.Timestamp, 0).UTC()
	}

	ev, err := incoming.FromWire(h, we.Node, we.Data, ts)
	if err != nil {
		return 0, err
	}

	id, err := p.log.Append(ctx, ev)
	if err != nil {
		return 0, err
	}
	p.logger.Info("event recorded", "id", id, "action", ev.Action(), "node_id", ev.Node().ID)
	p.publish(ctx, events.TopicEventRecorded, events.EventRecorded{
		ID:        id,
		NodeID:    ev.Node().ID,
		NodeURL:   ev.Site(),
		Action:    string(ev.Action()),
		Email:     ev.Email(),
		Timestamp: ev.Timestamp(),
	})

	if err := h.PostProcess(ctx, ev, p.directory); err != nil {
		p.logger.Error("applying event", "id", id, "action", ev.Action(), "node_id", ev.Node().ID, "err", err)
		p.publish(ctx, events.TopicApplyFailed, events.ApplyFailed{
			ID:     id,
			NodeID: ev.Node().ID,
			Action: string(ev.Action()),
			Email:  ev.Email(),
			Error:  err.Error(),
		})
		return id, &ApplyError{ID: id, Action: ev.Action(), Err: err}
	}
	return id, nil
}

func (p *Processor) publish(ctx context.Context, topic string, event any) {
	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		p.logger.Warn("publishing event", "topic", topic, "err", err)
	}
}
