// Package eventlog is the typed view of the hub's append-only event log.
// It persists incoming events and returns stored rows together with the
// handler registered for their action.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// PersistenceError reports that the backing store rejected a write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persisting event: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Item is one stored event with the handler for its action.
type Item struct {
	ID      int64
	Event   *incoming.Event
	Handler incoming.Handler
}

// Store appends to and queries the event log.
type Store struct {
	events   store.EventStore
	registry *incoming.Registry
	logger   *slog.Logger
}

// New creates a Store over events. Rows whose action is not in registry are
// hidden from Query.
func New(events store.EventStore, registry *incoming.Registry, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{events: events, registry: registry, logger: logger}
}

// Append writes ev as a new row and returns its ID. Invalid records are
// returned as *model.ValidationError; store failures as *PersistenceError.
func (s *Store) Append(ctx context.Context, ev *incoming.Event) (int64, error) {
	rec := ev.Record()
	if err := model.ValidateRecord(rec); err != nil {
		return 0, err
	}
	id, err := s.events.AppendEvent(ctx, rec)
	if err != nil {
		return 0, &PersistenceError{Err: err}
	}
	return id, nil
}

// Query returns page (1-based) of matching events, newest first. The window
// is taken over raw rows; rows with unknown actions or undecodable data are
// then dropped, so a page may hold fewer than perPage items.
func (s *Store) Query(ctx context.Context, filter model.EventFilter, perPage, page int) ([]*Item, error) {
	if err := model.ValidatePage(perPage, page); err != nil {
		return nil, err
	}

	offset, ok := model.PageOffset(perPage, page)
	if !ok {
		return []*Item{}, nil
	}

	recs, err := s.events.ListEvents(ctx, filter, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	items := make([]*Item, 0, len(recs))
	for _, rec := range recs {
		h, err := s.registry.Resolve(rec.ActionName)
		if err != nil {
			s.logger.Debug("skipping event with unknown action", "id", rec.ID, "action", rec.ActionName)
			continue
		}
		ev, err := incoming.FromRecord(h, rec)
		if errors.Is(err, incoming.ErrInvalidPayload) {
			s.logger.Warn("skipping event with undecodable data", "id", rec.ID, "err", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", rec.ID, err)
		}
		items = append(items, &Item{ID: rec.ID, Event: ev, Handler: h})
	}
	return items, nil
}

// Count returns the number of raw rows matching filter, including rows that
// Query would drop.
func (s *Store) Count(ctx context.Context, filter model.EventFilter) (int, error) {
	n, err := s.events.CountEvents(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}
