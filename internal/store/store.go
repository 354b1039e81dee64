package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/nethub/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrAccountExists is returned by CreateAccount when the login or email
	// is already taken. Callers racing on the same reader treat it as a
	// benign duplicate.
	ErrAccountExists = errors.New("account already exists")
)

// EventStore is the raw, append-only persistence interface for the event log.
type EventStore interface {
	// AppendEvent inserts the record and returns the server-assigned ID,
	// which is also written to rec.ID.
	AppendEvent(ctx context.Context, rec *model.Record) (int64, error)

	// ListEvents returns matching rows ordered by ID descending.
	ListEvents(ctx context.Context, filter model.EventFilter, limit, offset int) ([]*model.Record, error)

	// CountEvents returns the number of rows matching filter.
	CountEvents(ctx context.Context, filter model.EventFilter) (int, error)
}

// EventScanner walks the event log in ID order for bulk export.
type EventScanner interface {
	// LatestEventID returns the highest stored ID, or 0 when the log is empty.
	LatestEventID(ctx context.Context) (int64, error)

	// CountEventsThrough returns the number of rows with id <= throughID.
	CountEventsThrough(ctx context.Context, throughID int64) (int, error)

	// ScanEvents returns up to limit rows with afterID < id <= throughID,
	// ordered by ID ascending.
	ScanEvents(ctx context.Context, afterID, throughID int64, limit int) ([]*model.Record, error)
}

// Directory is the account directory that event handlers apply side effects to.
// Emails and logins are matched and kept unique without regard to case.
type Directory interface {
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account, password string) error
	AttachMetadata(ctx context.Context, accountID int64, key, value string) error

	// RunInTransaction runs fn against a Directory bound to a single
	// transaction, committing on success and rolling back on error.
	RunInTransaction(ctx context.Context, fn func(tx Directory) error) error
}

// Store combines everything the hub persists.
type Store interface {
	EventStore
	EventScanner
	Directory

	Close() error
}
