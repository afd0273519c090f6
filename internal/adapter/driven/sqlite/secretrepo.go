package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*SecretRepo)(nil)

// SecretRepo is the SQLite implementation of the SecretStore port. Values are
// encrypted with AES-256-GCM before write and decrypted after read.
type SecretRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewSecretRepo creates a new SecretRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable secret storage (Reveal and Store return
// driven.ErrEncryptionKeyNotSet).
func NewSecretRepo(db *DB, key []byte) *SecretRepo {
	return &SecretRepo{db: db, key: key}
}

// Store encrypts plaintext and stores or replaces the named field.
func (r *SecretRepo) Store(ctx context.Context, field, plaintext string) error {
	encrypted, err := r.encrypt(plaintext)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO secrets (field, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err = r.db.Writer.ExecContext(ctx, query, field, encrypted, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("store secret %q: %w", field, err)
	}
	return nil
}

// Reveal returns the decrypted value of the named field.
func (r *SecretRepo) Reveal(ctx context.Context, field string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM secrets WHERE field = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, field).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", field, driven.ErrSecretNotSet)
	}
	if err != nil {
		return "", fmt.Errorf("reveal secret %q: %w", field, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %q: %w", field, err)
	}
	return plaintext, nil
}

// IsSet reports whether a value is stored for the named field. It works
// without an encryption key since nothing is decrypted.
func (r *SecretRepo) IsSet(ctx context.Context, field string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM secrets WHERE field = ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, field).Scan(&exists); err != nil {
		return false, fmt.Errorf("check secret %q: %w", field, err)
	}
	return exists, nil
}

// encrypt returns base64(nonce || ciphertext || tag).
func (r *SecretRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (r *SecretRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *SecretRepo) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
