package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingsStore = (*SettingsRepo)(nil)

// SettingsRepo is the SQLite implementation of the SettingsStore port. It
// stores exactly one row, keyed by model.SettingsName.
type SettingsRepo struct {
	db  *DB
	now func() time.Time
}

// NewSettingsRepo creates a new SettingsRepo backed by the given DB.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db, now: time.Now}
}

// Get retrieves the singleton settings. Returns (nil, nil) if the record has
// not been created yet.
func (r *SettingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	const query = `SELECT enabled, erpnext_user, updated_at FROM settings WHERE name = ?`

	var (
		enabled   sql.NullBool
		s         model.Settings
		updatedAt string
	)

	err := r.db.Reader.QueryRowContext(ctx, query, model.SettingsName).Scan(&enabled, &s.ERPNextUser, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if enabled.Valid {
		s.SetEnabled(enabled.Bool)
	}

	s.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}

	return &s, nil
}

// Save inserts or replaces the singleton settings. A nil Enabled is stored
// as NULL so the unset state survives a round trip.
func (r *SettingsRepo) Save(ctx context.Context, settings model.Settings) error {
	const query = `
		INSERT INTO settings (name, enabled, erpnext_user, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled = excluded.enabled,
			erpnext_user = excluded.erpnext_user,
			updated_at = excluded.updated_at
	`

	var enabled sql.NullBool
	if settings.Enabled != nil {
		enabled = sql.NullBool{Bool: *settings.Enabled, Valid: true}
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		model.SettingsName, enabled, settings.ERPNextUser, formatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}
