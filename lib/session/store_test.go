package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAccessToken, "token-1"))
	require.NoError(t, store.Set(KeyEmail, "alice@example.com"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	token, _ := reopened.Get(KeyAccessToken)
	email, _ := reopened.Get(KeyEmail)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "alice@example.com", email)
}

func TestFileStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAccessToken, "token-1"))
	require.NoError(t, store.Set(KeyRefreshToken, "token-2"))
	require.NoError(t, store.Delete(KeyAccessToken, KeyRefreshToken))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	token, _ := reopened.Get(KeyAccessToken)
	assert.Empty(t, token)
}

func TestFileStore_MissingKeyReadsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	value, err := store.Get("never-set")
	require.NoError(t, err)
	assert.Empty(t, value)
}
