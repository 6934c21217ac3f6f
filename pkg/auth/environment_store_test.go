package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentStoreGet(t *testing.T) {
	t.Setenv("NOTION_API_KEY", "env-secret")

	store := NewEnvironmentStore()
	cred, err := store.Get("notion")
	require.NoError(t, err)
	assert.Equal(t, "notion", cred.Service)
	assert.Equal(t, "env-secret", cred.Secret)
	assert.True(t, store.Exists("notion"))
}

func TestEnvironmentStoreMissing(t *testing.T) {
	store := NewEnvironmentStore()
	_, err := store.Get("definitely-not-configured")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Exists("definitely-not-configured"))
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	store := NewEnvironmentStore()
	assert.ErrorIs(t, store.Set(&Credential{Service: "notion", Secret: "x"}), ErrStoreReadOnly)
	assert.ErrorIs(t, store.Delete("notion"), ErrStoreReadOnly)
}
