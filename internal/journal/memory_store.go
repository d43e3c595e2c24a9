package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore implements EntryStore for tests and local demos.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Entry // userID -> entries, newest first
	byID    map[string]Entry
}

// NewInMemoryStore constructs an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]Entry),
		byID:    make(map[string]Entry),
	}
}

// EnsureSchema is a no-op for in-memory storage.
func (s *InMemoryStore) EnsureSchema(_ context.Context) error {
	return nil
}

// Insert prepends the entry for its user.
func (s *InMemoryStore) Insert(_ context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[entry.UserID] = append([]Entry{entry}, s.records[entry.UserID]...)
	s.byID[entry.ID] = entry
	return entry, nil
}

// FindRecent returns up to limit entries for the user, newest first.
func (s *InMemoryStore) FindRecent(_ context.Context, userID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.records[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// FindByID returns one entry or ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// CountForUser reports how many entries the user has. Test helper.
func (s *InMemoryStore) CountForUser(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userID])
}
