package incoming

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// mockDirectory is an in-memory store.Directory with copy-on-begin
// transactions.
type mockDirectory struct {
	mu        sync.Mutex
	state     *dirState
	findErr   error
	attachErr error

	// beforeCreate runs inside CreateAccount before the uniqueness check.
	beforeCreate func(d *dirState)
	txCount      int
}

// dirState keys accounts and passwords by lowercased email.
type dirState struct {
	nextID    int64
	accounts  map[string]*model.Account
	passwords map[string]string
	meta      map[int64]map[string]string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{state: &dirState{
		accounts:  make(map[string]*model.Account),
		passwords: make(map[string]string),
		meta:      make(map[int64]map[string]string),
	}}
}

func (s *dirState) clone() *dirState {
	c := &dirState{
		nextID:    s.nextID,
		accounts:  maps.Clone(s.accounts),
		passwords: maps.Clone(s.passwords),
		meta:      make(map[int64]map[string]string, len(s.meta)),
	}
	for id, m := range s.meta {
		c.meta[id] = maps.Clone(m)
	}
	return c
}

func (s *dirState) addAccount(email string) *model.Account {
	s.nextID++
	a := &model.Account{ID: s.nextID, Login: email, Email: email, Role: model.RoleNetworkReader, CreatedAt: time.Now()}
	s.accounts[strings.ToLower(email)] = a
	return a
}

func (m *mockDirectory) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.find(email, m.findErr)
}

func (s *dirState) find(email string, injected error) (*model.Account, error) {
	if injected != nil {
		return nil, injected
	}
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *mockDirectory) CreateAccount(_ context.Context, a *model.Account, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(m.state, a, password)
}

func (m *mockDirectory) create(s *dirState, a *model.Account, password string) error {
	if m.beforeCreate != nil {
		m.beforeCreate(s)
	}
	key := strings.ToLower(a.Email)
	if _, ok := s.accounts[key]; ok {
		return store.ErrAccountExists
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = time.Now()
	s.accounts[key] = a
	s.passwords[key] = password
	return nil
}

func (m *mockDirectory) AttachMetadata(_ context.Context, id int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attach(m.state, id, key, value)
}

func (m *mockDirectory) attach(s *dirState, id int64, key, value string) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	if s.meta[id] == nil {
		s.meta[id] = make(map[string]string)
	}
	s.meta[id][key] = value
	return nil
}

func (m *mockDirectory) RunInTransaction(ctx context.Context, fn func(tx store.Directory) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++
	tx := &mockTx{dir: m, state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *mockDirectory) accountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.accounts)
}

func (m *mockDirectory) metaFor(email string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.accounts[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return maps.Clone(m.state.meta[a.ID])
}

// mockTx operates on a staged copy of the directory; the parent lock is held
// for its whole lifetime.
type mockTx struct {
	dir   *mockDirectory
	state *dirState
}

func (t *mockTx) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	return t.state.find(email, t.dir.findErr)
}

func (t *mockTx) CreateAccount(_ context.Context, a *model.Account, password string) error {
	return t.dir.create(t.state, a, password)
}

func (t *mockTx) AttachMetadata(_ context.Context, id int64, key, value string) error {
	return t.dir.attach(t.state, id, key, value)
}

func (t *mockTx) RunInTransaction(_ context.Context, fn func(tx store.Directory) error) error {
	return fn(t)
}
