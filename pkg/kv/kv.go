// Package kv defines the persistent key/value boundary used to store
// conversation memory records. Adapters live under adapters/ and must treat
// a missing key as absence, never as an error.
package kv

import (
	"context"
	"time"
)

// Store is the interface that all key/value adapters must implement.
type Store interface {
	// Get fetches the value stored under key. The second return value is
	// false when the key does not exist or its TTL has lapsed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A non-zero ttl bounds the record's
	// lifetime; adapters without native expiry store the deadline and
	// enforce it on read.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the value stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
