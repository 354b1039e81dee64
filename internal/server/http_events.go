package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/nethub/internal/eventlog"
	"github.com/alfredjeanlab/nethub/internal/hub"
	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/model"
)

// handlePushEvent handles POST /v1/events.
func (s *HubServer) handlePushEvent(w http.ResponseWriter, r *http.Request) {
	var we hub.WireEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&we); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.processor.Process(r.Context(), we)
	if err == nil {
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}

	var (
		unknown  *incoming.UnknownActionError
		invalid  *model.ValidationError
		persist  *eventlog.PersistenceError
		applyErr *hub.ApplyError
	)
	switch {
	case errors.As(err, &applyErr):
		// The event is in the log; the node must not resend it.
		writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "apply_error": applyErr.Err.Error()})
	case errors.As(err, &unknown), errors.As(err, &invalid), errors.Is(err, incoming.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &persist):
		s.logger.Error("persisting pushed event", "action", we.Action, "node_id", we.Node.ID, "err", err)
		writeError(w, http.StatusServiceUnavailable, "event log unavailable")
	default:
		s.logger.Error("processing pushed event", "action", we.Action, "node_id", we.Node.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
	}
}

// handleListEvents handles GET /v1/events.
func (s *HubServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		ActionName: q.Get("action_name"),
		Search:     q.Get("search"),
	}

	if v := q.Get("node_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "node_id must be an integer")
			return
		}
		filter.NodeID = n
	}

	perPage, page := s.defaultPageSize, 1
	for _, p := range []struct {
		name string
		dst  *int
	}{{"per_page", &perPage}, {"page", &page}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, p.name+" must be an integer")
			return
		}
		*p.dst = n
	}

	items, err := s.events.Query(r.Context(), filter, perPage, page)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error("querying event log", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	total, err := s.events.Count(r.Context(), filter)
	if err != nil {
		s.logger.Error("counting event log", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to count events")
		return
	}

	// Ensure events is never null in JSON output.
	records := make([]*model.Record, 0, len(items))
	for _, it := range items {
		rec := it.Event.Record()
		rec.ID = it.ID
		records = append(records, rec)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":   records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
