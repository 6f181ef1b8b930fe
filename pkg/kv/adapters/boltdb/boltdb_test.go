package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func setupTestStore(t *testing.T) *BoltStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.bolt.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewBoltStore(db)
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestSetGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte(`{"a":1}`), 0))

	value, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"a":1}`), value)
}

func TestGetMissing(t *testing.T) {
	store := setupTestStore(t)

	value, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestOverwrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, store.Set(ctx, "k1", []byte("v2"), 0))

	value, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v2"), value)
}

func TestDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k1"))

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "k1"))
}

func TestExpiredEntryTreatedAsMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Already-lapsed TTL
	require.NoError(t, store.Set(ctx, "k1", []byte("v"), -time.Minute))

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}
