package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/nethub/internal/incoming"
	"github.com/alfredjeanlab/nethub/internal/model"
)

// mockEventStore is an in-memory store.EventStore.
type mockEventStore struct {
	rows      []*model.Record
	appendErr error
	listErr   error
	lastLimit int
	lastOff   int
}

func (m *mockEventStore) AppendEvent(_ context.Context, rec *model.Record) (int64, error) {
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	cp := *rec
	cp.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, &cp)
	rec.ID = cp.ID
	return cp.ID, nil
}

func (m *mockEventStore) matching(f model.EventFilter) []*model.Record {
	var out []*model.Record
	for _, r := range m.rows {
		if f.NodeID != 0 && r.NodeID != f.NodeID {
			continue
		}
		if f.ActionName != "" && r.ActionName != f.ActionName {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(r.Email), q) &&
				!strings.Contains(strings.ToLower(r.ActionName), q) &&
				!strings.Contains(strings.ToLower(string(r.Data)), q) {
				continue
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *mockEventStore) ListEvents(_ context.Context, f model.EventFilter, limit, offset int) ([]*model.Record, error) {
	m.lastLimit, m.lastOff = limit, offset
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows := m.matching(f)
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *mockEventStore) CountEvents(_ context.Context, f model.EventFilter) (int, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	return len(m.matching(f)), nil
}

func newTestStore() (*Store, *mockEventStore) {
	raw := &mockEventStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(raw, incoming.DefaultRegistry(), logger), raw
}

func seed(raw *mockEventStore, nodeID int64, action, email, data string) {
	raw.rows = append(raw.rows, &model.Record{
		ID:         int64(len(raw.rows) + 1),
		NodeID:     nodeID,
		ActionName: action,
		Email:      email,
		Data:       json.RawMessage(data),
		Timestamp:  time.Unix(1700000000+int64(len(raw.rows)), 0).UTC(),
	})
}

func newEvent(t *testing.T, action incoming.Action, nodeID int64, payload string) *incoming.Event {
	t.Helper()
	h, err := incoming.DefaultRegistry().Resolve(string(action))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := incoming.FromWire(h, model.Node{ID: nodeID, URL: "https://n.example"}, json.RawMessage(payload), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestAppend(t *testing.T) {
	s, raw := newTestStore()
	ev := newEvent(t, incoming.ActionReaderRegistered, 1, `{"email":"r@example.com"}`)

	id1, err := s.Append(context.Background(), ev)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	id2, err := s.Append(context.Background(), ev)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not increasing: %d then %d", id1, id2)
	}
	if len(raw.rows) != 2 {
		t.Fatalf("rows = %d, want 2 (append never deduplicates)", len(raw.rows))
	}
	rec := raw.rows[0]
	if rec.NodeID != 1 || rec.ActionName != "reader_registered" || rec.Email != "r@example.com" {
		t.Errorf("stored row = %+v", rec)
	}
}

func TestAppendPersistenceError(t *testing.T) {
	s, raw := newTestStore()
	raw.appendErr = errors.New("connection refused")

	_, err := s.Append(context.Background(), newEvent(t, incoming.ActionDonationNew, 1, `{}`))
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if !errors.Is(err, raw.appendErr) {
		t.Error("PersistenceError does not unwrap to store error")
	}
}

func TestAppendRejectsMissingNode(t *testing.T) {
	s, raw := newTestStore()
	_, err := s.Append(context.Background(), newEvent(t, incoming.ActionDonationNew, 0, `{}`))
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
	if len(raw.rows) != 0 {
		t.Error("invalid record was persisted")
	}
}

func TestQueryValidatesPaging(t *testing.T) {
	s, _ := newTestStore()
	for _, tt := range []struct{ perPage, page int }{{0, 1}, {-5, 1}, {10, 0}, {10, -1}} {
		_, err := s.Query(context.Background(), model.EventFilter{}, tt.perPage, tt.page)
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Query(%d, %d) error = %v, want validation error", tt.perPage, tt.page, err)
		}
	}
}

func TestQueryNewestFirstWithPaging(t *testing.T) {
	s, raw := newTestStore()
	for i := 0; i < 5; i++ {
		seed(raw, 1, "donation_new", "", `{}`)
	}

	items, err := s.Query(context.Background(), model.EventFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if raw.lastLimit != 2 || raw.lastOff != 2 {
		t.Errorf("window = limit %d offset %d, want 2/2", raw.lastLimit, raw.lastOff)
	}
	if len(items) != 2 || items[0].ID != 3 || items[1].ID != 2 {
		t.Fatalf("page 2 ids = %v, want [3 2]", ids(items))
	}

	items, err = s.Query(context.Background(), model.EventFilter{}, 2, 4)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("page past end = %v, want empty", ids(items))
	}
}

func TestQueryPageBeyondAddressableRange(t *testing.T) {
	s, raw := newTestStore()
	seed(raw, 1, "donation_new", "", `{}`)
	raw.lastOff = -1

	items, err := s.Query(context.Background(), model.EventFilter{}, 10, math.MaxInt/10+2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", ids(items))
	}
	if raw.lastOff != -1 {
		t.Errorf("store was queried with offset %d", raw.lastOff)
	}
}

func TestQueryDropsUnknownActions(t *testing.T) {
	s, raw := newTestStore()
	seed(raw, 1, "reader_registered", "a@example.com", `{"email":"a@example.com"}`)
	seed(raw, 1, "legacy_action", "", `{}`)
	seed(raw, 1, "donation_new", "", `{}`)

	items, err := s.Query(context.Background(), model.EventFilter{}, 10, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := ids(items); len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Fatalf("ids = %v, want [3 1]", got)
	}
	if items[1].Handler.Action() != incoming.ActionReaderRegistered {
		t.Errorf("handler = %q", items[1].Handler.Action())
	}
	if items[1].Event.Email() != "a@example.com" {
		t.Errorf("email = %q", items[1].Event.Email())
	}

	n, err := s.Count(context.Background(), model.EventFilter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want raw count 3", n)
	}
}

func TestQueryWindowBeforeFiltering(t *testing.T) {
	s, raw := newTestStore()
	seed(raw, 1, "donation_new", "", `{}`)
	seed(raw, 1, "legacy_action", "", `{}`)

	items, err := s.Query(context.Background(), model.EventFilter{}, 1, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("first page = %v, want empty (its only row is unknown)", ids(items))
	}
}

func TestQuerySkipsCorruptData(t *testing.T) {
	s, raw := newTestStore()
	seed(raw, 1, "donation_new", "", `{}`)
	seed(raw, 1, "donation_new", "", `not json`)

	items, err := s.Query(context.Background(), model.EventFilter{}, 10, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := ids(items); len(got) != 1 || got[0] != 1 {
		t.Errorf("ids = %v, want [1]", got)
	}
}

func TestQueryFilters(t *testing.T) {
	s, raw := newTestStore()
	seed(raw, 1, "reader_registered", "alice@example.com", `{"email":"alice@example.com"}`)
	seed(raw, 2, "reader_registered", "bob@example.com", `{"email":"bob@example.com"}`)
	seed(raw, 2, "donation_new", "alice@example.com", `{"email":"alice@example.com","amount":"5"}`)

	tests := []struct {
		name   string
		filter model.EventFilter
		want   []int64
	}{
		{"node", model.EventFilter{NodeID: 2}, []int64{3, 2}},
		{"action", model.EventFilter{ActionName: "reader_registered"}, []int64{2, 1}},
		{"search", model.EventFilter{Search: "ALICE"}, []int64{3, 1}},
		{"combined", model.EventFilter{NodeID: 2, Search: "alice"}, []int64{3}},
		{"none", model.EventFilter{NodeID: 9}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.Query(context.Background(), tt.filter, 10, 1)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			got := ids(items)
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestQueryStoreError(t *testing.T) {
	s, raw := newTestStore()
	raw.listErr = errors.New("timeout")
	if _, err := s.Query(context.Background(), model.EventFilter{}, 10, 1); !errors.Is(err, raw.listErr) {
		t.Errorf("Query error = %v", err)
	}
	if _, err := s.Count(context.Background(), model.EventFilter{}); !errors.Is(err, raw.listErr) {
		t.Errorf("Count error = %v", err)
	}
}

func ids(items []*Item) []int64 {
	var out []int64
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
