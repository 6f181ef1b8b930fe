// Package boltdb implements kv.Store on an embedded BoltDB database.
// BoltDB has no native expiry, so the deadline is stored alongside the value
// and enforced on read.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/savdolab/convoctx/pkg/log"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("memory")

// storedValue is the on-disk envelope for a single entry.
type storedValue struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// BoltStore implements the kv.Store interface using a BoltDB database.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltStore with the given database connection.
func NewBoltStore(db *bolt.DB) *BoltStore {
	store := &BoltStore{db: db}

	log.Debug("Initialized BoltDB KV store adapter",
		"db_path", db.Path(),
		"read_only", db.IsReadOnly(),
	)

	return store
}

// Initialize creates the required bucket if it doesn't exist. Called once at
// startup before the store is used.
func (b *BoltStore) Initialize(ctx context.Context) error {
	log.DebugContext(ctx, "Initializing BoltDB store bucket")

	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})

	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize BoltDB bucket", "error", err)
		return err
	}

	return nil
}

// Get implements kv.Store.
func (b *BoltStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	var expired bool

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}

		var stored storedValue
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal stored value: %w", err)
		}

		if !stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt) {
			expired = true
			return nil
		}

		value = stored.Value
		found = true
		return nil
	})

	if err != nil {
		return nil, false, fmt.Errorf("failed to get record: %w", err)
	}

	// Lazily reap the expired entry outside the read transaction
	if expired {
		if delErr := b.Delete(ctx, key); delErr != nil {
			log.WarnContext(ctx, "Failed to reap expired entry", "key", key, "error", delErr)
		}
	}

	return value, found, nil
}

// Set implements kv.Store.
func (b *BoltStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := storedValue{Value: value}
	if ttl > 0 {
		stored.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return bucket.Put([]byte(key), data)
	})

	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	return nil
}

// Delete implements kv.Store.
func (b *BoltStore) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})

	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}
