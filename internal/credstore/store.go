// Package credstore provides durable, encrypted-at-rest persistence for the
// session's access and refresh tokens.
package credstore

import (
	"context"
	"sync"
)

// Keys under which the token pair is persisted.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Store is a small key/value store for credential strings. Every call
// completes, successfully or with an error, before it returns.
type Store interface {
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
