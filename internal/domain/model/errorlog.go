package model

import "time"

// Error log categories.
const (
	ErrorCategoryConnection = "Invoice2ERPNext"
	ErrorCategoryCredits    = "Invoice2Erpnext Credits"
)

// ErrorLogEntry is one row of the operational error log.
type ErrorLogEntry struct {
	ID        string
	Category  string
	Message   string
	CreatedAt time.Time
}
