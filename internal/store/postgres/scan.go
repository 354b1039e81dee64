package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/nethub/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a model.Record.
// The row must contain columns in the order defined by eventColumns.
func scanRecord(row scannable) (*model.Record, error) {
	var (
		r     model.Record
		email sql.NullString
		data  string
	)
	if err := row.Scan(&r.ID, &r.NodeID, &r.ActionName, &email, &data, &r.Timestamp); err != nil {
		return nil, err
	}
	r.Email = email.String
	r.Data = json.RawMessage(data)
	return &r, nil
}

// scanRecords scans multiple rows into a slice of model.Record pointers.
func scanRecords(rows *sql.Rows) ([]*model.Record, error) {
	var records []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// scanAccount scans a single row into a model.Account.
func scanAccount(row scannable) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.Login, &a.Email, &a.Role, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
