// Package mock provides an in-memory kv.Store for tests and local demos.
package mock

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MockStore implements kv.Store with a process-local map.
type MockStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is replaceable in tests
	now func() time.Time
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements kv.Store.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}

	// Copy so callers cannot mutate stored state
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set implements kv.Store.
func (m *MockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements kv.Store.
func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live entries, for test assertions.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetClock replaces the time source, for TTL tests.
func (m *MockStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
