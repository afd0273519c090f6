package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by SecretStore operations when
// INVOICE2ERPNEXT_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set INVOICE2ERPNEXT_SECRET_KEY")

// ErrSecretNotSet is returned by Reveal when no value has been stored for
// the requested field.
var ErrSecretNotSet = errors.New("secret not set")

// SecretStore defines the driven port for encrypted credential fields. The
// adapter is responsible for encryption at rest; this interface deals in
// plaintext at the domain boundary.
type SecretStore interface {
	// Reveal returns the decrypted value of the named field. Returns
	// ErrSecretNotSet if the field has never been stored and
	// ErrEncryptionKeyNotSet if the adapter has no encryption key.
	Reveal(ctx context.Context, field string) (string, error)

	// Store encrypts and stores or replaces the named field.
	Store(ctx context.Context, field, plaintext string) error

	// IsSet reports whether a value exists for the named field without
	// decrypting it.
	IsSet(ctx context.Context, field string) (bool, error)
}
