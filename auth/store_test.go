package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/philoterm/model"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, ok := store.Load()
	assert.False(t, ok)

	user := model.User{ID: 3, Username: "ada", Email: "ada@example.com"}
	require.NoError(t, store.Save("tok-123", user))

	token, loaded, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, user, loaded)

	require.NoError(t, store.Clear())
	_, _, ok = store.Load()
	assert.False(t, ok)

	// Clearing an already-empty store is fine.
	require.NoError(t, store.Clear())
}

func TestStoreHalfPairCountsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("tok-123", model.User{ID: 1, Username: "ada"}))
	require.NoError(t, os.Remove(filepath.Join(dir, "user.json")))

	_, _, ok := store.Load()
	assert.False(t, ok)
}
