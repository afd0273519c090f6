package driven

import (
	"context"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

// ErrorLogStore defines the driven port for the category-tagged operational
// error log.
type ErrorLogStore interface {
	Log(ctx context.Context, category, message string) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]model.ErrorLogEntry, error)
}
