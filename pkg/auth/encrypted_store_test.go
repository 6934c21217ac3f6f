package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptedStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("OTOMATA_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	store := newTestEncryptedStore(t)

	require.NoError(t, store.Set(&Credential{Service: "notion", Secret: "token-123"}))
	require.NoError(t, store.Set(&Credential{Service: "hunter", Secret: "token-456"}))

	cred, err := store.Get("notion")
	require.NoError(t, err)
	assert.Equal(t, "token-123", cred.Secret)

	creds, err := store.List()
	require.NoError(t, err)
	assert.Len(t, creds, 2)

	require.NoError(t, store.Delete("notion"))
	_, err = store.Get("notion")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, store.Exists("hunter"))
}

func TestEncryptedStoreMissingFile(t *testing.T) {
	store := newTestEncryptedStore(t)

	_, err := store.Get("notion")
	assert.ErrorIs(t, err, ErrNotFound)

	creds, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestEncryptedStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("OTOMATA_PASSPHRASE", "correct")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(&Credential{Service: "notion", Secret: "token"}))

	t.Setenv("OTOMATA_PASSPHRASE", "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Get("notion")
	assert.Error(t, err)
}

func TestEncryptFileOnDiskIsOpaque(t *testing.T) {
	store := newTestEncryptedStore(t)
	require.NoError(t, store.Set(&Credential{Service: "notion", Secret: "super-secret-token"}))

	content, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "super-secret-token")
}
