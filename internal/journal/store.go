package journal

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("journal: entry not found")

// EntryStore abstracts append-only persistence for journal entries.
//
// The store never mutates or deletes existing entries; the orchestrator only
// ever appends.
type EntryStore interface {
	EnsureSchema(ctx context.Context) error

	// Insert appends a new entry and returns it with its assigned id.
	Insert(ctx context.Context, entry Entry) (Entry, error)

	// FindRecent returns up to limit entries for the user, newest first.
	FindRecent(ctx context.Context, userID string, limit int) ([]Entry, error)

	// FindByID returns one entry or ErrNotFound.
	FindByID(ctx context.Context, id string) (Entry, error)
}

// SimilaritySearcher performs vector similarity search over entries scoped
// to one user. It may be unavailable (no index provisioned yet); callers
// must treat errors and empty results as a signal to fall back to
// chronological retrieval.
type SimilaritySearcher interface {
	// FindSimilar explores up to candidatePool candidates and returns the
	// top limit matches in descending similarity order.
	FindSimilar(ctx context.Context, userID string, queryEmbedding []float32, candidatePool, limit int) ([]ContextEntry, error)
}
