// Package memory holds session-scoped values, such as the last quote shown,
// that must not outlive the process.
package memory

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Store is an in-memory ports.KeyValueStore.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty session store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Get returns a copy of the value under key, or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	return append([]byte(nil), v...), nil
}

// Put stores a copy of value.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)

	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

// Clear ends the session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.values)
}
