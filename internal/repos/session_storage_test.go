package repos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makhana/internal/repos"
)

func TestSessionStorageRoundTrip(t *testing.T) {
	store := repos.NewSessionStorage(memdb(t))

	got, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set("sid-1", []byte("payload"), time.Hour))
	got, err = store.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// overwrite keeps a single row
	require.NoError(t, store.Set("sid-1", []byte("payload-2"), time.Hour))
	got, err = store.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload-2"), got)

	require.NoError(t, store.Delete("sid-1"))
	got, err = store.Get("sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorageExpiry(t *testing.T) {
	db := memdb(t)
	store := repos.NewSessionStorage(db)

	require.NoError(t, store.Set("old", []byte("a"), time.Nanosecond))
	require.NoError(t, store.Set("fresh", []byte("b"), time.Hour))
	require.NoError(t, store.Set("forever", []byte("c"), 0))

	// the one-nanosecond entry rounds to the current second and is already stale
	got, err := store.Get("old")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := store.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = store.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)

	require.NoError(t, store.Reset())
	assert.Equal(t, 0, count(t, db, "sessions"))
}
