package model

import "time"

// SettingsName is the fixed identifier of the singleton settings record.
const SettingsName = "Invoice2Erpnext Settings"

// Secret field names resolved through the secret store.
const (
	SecretAPIKey    = "api_key"
	SecretAPISecret = "api_secret"
)

// Settings is the singleton integration settings record. Credentials are not
// fields of Settings; they are resolved through a SecretStore by field name.
//
// Enabled is tri-state: nil means the flag was never set and is treated as
// enabled. Only an explicit false disables the integration.
type Settings struct {
	Enabled     *bool
	ERPNextUser string
	UpdatedAt   time.Time
}

// IsDisabled reports whether the integration has been explicitly disabled.
// An unset flag counts as enabled, matching records created before the flag
// existed.
func (s Settings) IsDisabled() bool {
	return s.Enabled != nil && !*s.Enabled
}

// SetEnabled replaces the enabled flag with an explicit value.
func (s *Settings) SetEnabled(v bool) {
	s.Enabled = &v
}
