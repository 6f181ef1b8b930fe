package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	err := store.Set(ctx, "k1", []byte("hello"), 0)
	require.NoError(t, err)

	value, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), value)
}

func TestGetMissing(t *testing.T) {
	store := NewMockStore()

	value, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestDelete(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k1"))

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "k1"))
}

func TestTTLExpiry(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k1", []byte("v"), time.Hour))

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)

	// Advance past the TTL
	store.SetClock(func() time.Time { return now.Add(2 * time.Hour) })

	_, found, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestValueIsolation(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, store.Set(ctx, "k1", original, 0))
	original[0] = 'x'

	value, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("abc"), value)
}
