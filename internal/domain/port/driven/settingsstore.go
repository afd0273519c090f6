package driven

import (
	"context"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

// SettingsReader is the read-only capability over the singleton settings
// record. It is all the guest-safe credits projection is given, so that path
// can never write settings regardless of the acting user.
// Get returns (nil, nil) when the record has not been created yet.
type SettingsReader interface {
	Get(ctx context.Context) (*model.Settings, error)
}

// SettingsStore defines the driven port for singleton settings persistence.
type SettingsStore interface {
	SettingsReader

	// Save inserts or replaces the singleton record.
	Save(ctx context.Context, settings model.Settings) error
}
