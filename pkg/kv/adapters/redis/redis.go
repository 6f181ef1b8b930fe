// Package redis implements kv.Store on a Redis server. Expiry uses native
// Redis TTLs, which matches the memory store's refresh-on-update semantics.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	convoerrors "github.com/savdolab/convoctx/pkg/errors"
	"github.com/savdolab/convoctx/pkg/log"
)

const keyPrefix = "convoctx:"

// RedisStore implements the kv.Store interface using a Redis client.
type RedisStore struct {
	client *redis.Client
}

// Config holds connection settings for the Redis adapter.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Debug("Initialized Redis KV store adapter", "addr", cfg.Addr, "db", cfg.DB)

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromURL connects using a redis:// URL, typically from the
// REDIS_URL environment variable.
func NewRedisStoreFromURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) key(key string) string {
	return keyPrefix + key
}

// Get implements kv.Store.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, convoerrors.Wrap(convoerrors.ErrStoreUnavailable, "failed to get record: %v", err)
	}
	return data, true, nil
}

// Set implements kv.Store.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return convoerrors.Wrap(convoerrors.ErrStoreUnavailable, "failed to set record: %v", err)
	}
	return nil
}

// Delete implements kv.Store.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return convoerrors.Wrap(convoerrors.ErrStoreUnavailable, "failed to delete record: %v", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
