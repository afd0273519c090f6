package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ErrorLogStore = (*ErrorLogRepo)(nil)

// ErrorLogRepo is the SQLite implementation of the ErrorLogStore port.
type ErrorLogRepo struct {
	db  *DB
	now func() time.Time
}

// NewErrorLogRepo creates a new ErrorLogRepo backed by the given DB.
func NewErrorLogRepo(db *DB) *ErrorLogRepo {
	return &ErrorLogRepo{db: db, now: time.Now}
}

// Log appends an entry under the given category.
func (r *ErrorLogRepo) Log(ctx context.Context, category, message string) error {
	const query = `INSERT INTO error_log (id, category, message, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, uuid.NewString(), category, message, formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("log error %q: %w", category, err)
	}
	return nil
}

// List returns up to limit entries, newest first. Entries written within the
// same instant keep insertion order reversed.
func (r *ErrorLogRepo) List(ctx context.Context, limit int) ([]model.ErrorLogEntry, error) {
	const query = `
		SELECT id, category, message, created_at
		FROM error_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list error log: %w", err)
	}
	defer rows.Close()

	entries := []model.ErrorLogEntry{}
	for rows.Next() {
		var (
			e         model.ErrorLogEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Category, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan error log entry: %w", err)
		}

		e.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for error log entry %s: %w", e.ID, err)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate error log: %w", err)
	}

	return entries, nil
}
