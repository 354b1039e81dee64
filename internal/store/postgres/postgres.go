// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/passwd"
	"github.com/alfredjeanlab/nethub/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
// Concurrent appends rely on the BIGSERIAL identity column; there is no
// application-level locking.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open database handle. Migrations are not run.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) AppendEvent(ctx context.Context, rec *model.Record) (int64, error) {
	return queryAppendEvent(ctx, s.db, rec)
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter model.EventFilter, limit, offset int) ([]*model.Record, error) {
	return queryListEvents(ctx, s.db, filter, limit, offset)
}

func (s *PostgresStore) CountEvents(ctx context.Context, filter model.EventFilter) (int, error) {
	return queryCountEvents(ctx, s.db, filter)
}

func (s *PostgresStore) LatestEventID(ctx context.Context) (int64, error) {
	return queryLatestEventID(ctx, s.db)
}

func (s *PostgresStore) CountEventsThrough(ctx context.Context, throughID int64) (int, error) {
	return queryCountEventsThrough(ctx, s.db, throughID)
}

func (s *PostgresStore) ScanEvents(ctx context.Context, afterID, throughID int64, limit int) ([]*model.Record, error) {
	return queryScanEvents(ctx, s.db, afterID, throughID, limit)
}

func (s *PostgresStore) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return queryFindAccountByEmail(ctx, s.db, email)
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *model.Account, password string) error {
	return createAccount(ctx, s.db, account, password)
}

func (s *PostgresStore) AttachMetadata(ctx context.Context, accountID int64, key, value string) error {
	return queryAttachMetadata(ctx, s.db, accountID, key, value)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Directory) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func createAccount(ctx context.Context, db executor, account *model.Account, password string) error {
	hash, err := passwd.Hash(password)
	if err != nil {
		return err
	}
	return queryCreateAccount(ctx, db, account, hash)
}

// txStore implements store.Directory using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Directory.
var _ store.Directory = (*txStore)(nil)

func (s *txStore) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return queryFindAccountByEmail(ctx, s.tx, email)
}

func (s *txStore) CreateAccount(ctx context.Context, account *model.Account, password string) error {
	return createAccount(ctx, s.tx, account, password)
}

func (s *txStore) AttachMetadata(ctx context.Context, accountID int64, key, value string) error {
	return queryAttachMetadata(ctx, s.tx, accountID, key, value)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Directory) error) error {
	return fn(s)
}
