package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// eventColumns is the column list used for SELECT statements on the event_log table.
const eventColumns = `id, node_id, action_name, email, data, timestamp`

// accountColumns is the column list used for SELECT statements on the accounts table.
const accountColumns = `id, login, email, role, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryAppendEvent(ctx context.Context, db executor, r *model.Record) (int64, error) {
	err := db.QueryRowContext(ctx, `
		INSERT INTO event_log (node_id, action_name, email, data, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		r.NodeID,
		r.ActionName,
		nullString(r.Email),
		string(r.Data),
		r.Timestamp,
	).Scan(&r.ID)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return r.ID, nil
}

func queryListEvents(ctx context.Context, db executor, filter model.EventFilter, limit, offset int) ([]*model.Record, error) {
	argIdx := 0
	whereSQL, args := eventFilterClause(filter).build(&argIdx)

	q := "SELECT " + eventColumns + " FROM event_log" + whereSQL +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argIdx+1, argIdx+2)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return records, nil
}

func queryCountEvents(ctx context.Context, db executor, filter model.EventFilter) (int, error) {
	argIdx := 0
	whereSQL, args := eventFilterClause(filter).build(&argIdx)

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_log"+whereSQL, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func queryLatestEventID(ctx context.Context, db executor) (int64, error) {
	var id int64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM event_log").Scan(&id); err != nil {
		return 0, fmt.Errorf("latest event id: %w", err)
	}
	return id, nil
}

func queryCountEventsThrough(ctx context.Context, db executor, throughID int64) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_log WHERE id <= $1", throughID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events through %d: %w", throughID, err)
	}
	return n, nil
}

// queryScanEvents pages by key rather than OFFSET so each page costs the
// same regardless of how far into the log it starts.
func queryScanEvents(ctx context.Context, db executor, afterID, throughID int64, limit int) ([]*model.Record, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM event_log WHERE id > $1 AND id <= $2 ORDER BY id ASC LIMIT $3",
		afterID, throughID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("scan events after %d: %w", afterID, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return records, nil
}

func queryFindAccountByEmail(ctx context.Context, db executor, email string) (*model.Account, error) {
	row := db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

func queryCreateAccount(ctx context.Context, db executor, a *model.Account, passwordHash string) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO accounts (login, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.Login, a.Email, passwordHash, a.Role,
	).Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func queryAttachMetadata(ctx context.Context, db executor, accountID int64, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO account_meta (account_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, key) DO UPDATE SET value = EXCLUDED.value`,
		accountID, key, value,
	)
	if err != nil {
		return fmt.Errorf("attach metadata %s: %w", key, err)
	}
	return nil
}
