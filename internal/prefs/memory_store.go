package prefs

import (
	"context"
	"sync"
)

// InMemoryStore implements Store for tests and local demos.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]UserPreferences
}

// NewInMemoryStore constructs an in-memory preferences store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]UserPreferences)}
}

// EnsureSchema is a no-op for in-memory storage.
func (s *InMemoryStore) EnsureSchema(_ context.Context) error {
	return nil
}

// Get returns the user's preferences or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, userID string) (UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.records[userID]
	if !ok {
		return UserPreferences{}, ErrNotFound
	}
	return prefs, nil
}

// Save creates or replaces the user's preferences.
func (s *InMemoryStore) Save(_ context.Context, prefs UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[prefs.UserID] = prefs
	return nil
}
