// Package memory provides an in-process StateStore used for tests and
// ephemeral bootstrap runs.
package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// StateStore is a map-backed store.StateStore. It is safe for concurrent use.
type StateStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ store.StateStore = (*StateStore)(nil)

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{values: make(map[string]string)}
}

// Get implements store.StateStore.Get
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", store.ErrStateNotFound
	}
	return value, nil
}

// Set implements store.StateStore.Set
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements store.StateStore.Remove
func (s *StateStore) Remove(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Snapshot returns a copy of every stored value.
func (s *StateStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
