package hub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// mockStore is a minimal in-memory EventStore and Directory for pipeline tests.
// Transactions run directly against the shared state.
type mockStore struct {
	mu        sync.Mutex
	rows      []*model.Record
	accounts  map[string]*model.Account
	meta      map[int64]map[string]string
	appendErr error
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: make(map[string]*model.Account),
		meta:     make(map[int64]map[string]string),
	}
}

func (m *mockStore) AppendEvent(_ context.Context, rec *model.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	cp := *rec
	cp.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, &cp)
	rec.ID = cp.ID
	return cp.ID, nil
}

func (m *mockStore) ListEvents(_ context.Context, _ model.EventFilter, limit, offset int) ([]*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Record
	for i := len(m.rows) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *mockStore) CountEvents(context.Context, model.EventFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *mockStore) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *mockStore) CreateAccount(_ context.Context, a *model.Account, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.accounts[strings.ToLower(a.Email)]; ok {
		return store.ErrAccountExists
	}
	a.ID = int64(len(m.accounts) + 1)
	a.CreatedAt = time.Now()
	m.accounts[strings.ToLower(a.Email)] = a
	return nil
}

func (m *mockStore) AttachMetadata(_ context.Context, id int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta[id] == nil {
		m.meta[id] = make(map[string]string)
	}
	m.meta[id][key] = value
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Directory) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *mockStore) accountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// recordingPublisher captures published events by topic.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) on(topic string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for i, t := range p.topics {
		if t == topic {
			out = append(out, p.events[i])
		}
	}
	return out
}
