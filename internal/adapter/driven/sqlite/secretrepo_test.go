package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

func TestSecretRepo_StoreAndReveal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "api_key", "key-123"))

	val, err := repo.Reveal(ctx, "api_key")
	require.NoError(t, err)
	assert.Equal(t, "key-123", val)
}

func TestSecretRepo_StoredValueIsEncrypted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "api_secret", "plain-secret"))

	var raw string
	require.NoError(t, db.Reader.QueryRow(`SELECT value FROM secrets WHERE field = ?`, "api_secret").Scan(&raw))
	assert.NotContains(t, raw, "plain-secret")
}

func TestSecretRepo_RevealMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)

	_, err := repo.Reveal(context.Background(), "api_key")
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrSecretNotSet)
	assert.Contains(t, err.Error(), "api_key")
}

func TestSecretRepo_StoreOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "api_key", "old"))
	require.NoError(t, repo.Store(ctx, "api_key", "new"))

	val, err := repo.Reveal(ctx, "api_key")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}

func TestSecretRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, nil)
	ctx := context.Background()

	err := repo.Store(ctx, "api_key", "value")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Reveal(ctx, "api_key")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestSecretRepo_IsSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	set, err := repo.IsSet(ctx, "api_key")
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, repo.Store(ctx, "api_key", "value"))

	set, err = repo.IsSet(ctx, "api_key")
	require.NoError(t, err)
	assert.True(t, set)

	set, err = NewSecretRepo(db, nil).IsSet(ctx, "api_key")
	require.NoError(t, err)
	assert.True(t, set, "IsSet does not need the encryption key")
}

func TestSecretRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewSecretRepo(db, testKey).Store(ctx, "api_key", "value"))

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err := NewSecretRepo(db, other).Reveal(ctx, "api_key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt secret")
}
