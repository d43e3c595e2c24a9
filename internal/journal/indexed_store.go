package journal

import (
	"context"

	"deardiary/internal/logging"
)

// IndexedStore composes a base EntryStore with a VectorIndex so one value
// satisfies both EntryStore and SimilaritySearcher.
//
// Index writes are best-effort: an entry that persisted but failed to index
// is still retrievable through the chronological fallback, so the insert
// succeeds and the index error is only logged.
type IndexedStore struct {
	base   EntryStore
	index  *VectorIndex
	logger logging.Logger
}

// NewIndexedStore wraps base with the similarity index.
func NewIndexedStore(base EntryStore, index *VectorIndex, logger logging.Logger) *IndexedStore {
	return &IndexedStore{
		base:   base,
		index:  index,
		logger: logging.OrNop(logger),
	}
}

// EnsureSchema delegates to the base store.
func (s *IndexedStore) EnsureSchema(ctx context.Context) error {
	return s.base.EnsureSchema(ctx)
}

// Insert appends to the base store, then indexes the embedding if present.
func (s *IndexedStore) Insert(ctx context.Context, entry Entry) (Entry, error) {
	inserted, err := s.base.Insert(ctx, entry)
	if err != nil {
		return inserted, err
	}

	if s.index != nil && len(inserted.Embedding) > 0 {
		if err := s.index.Add(ctx, inserted); err != nil {
			s.logger.Warn("index entry %s: %v", inserted.ID, err)
		}
	}
	return inserted, nil
}

// FindRecent delegates to the base store.
func (s *IndexedStore) FindRecent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return s.base.FindRecent(ctx, userID, limit)
}

// FindByID delegates to the base store.
func (s *IndexedStore) FindByID(ctx context.Context, id string) (Entry, error) {
	return s.base.FindByID(ctx, id)
}

// FindSimilar delegates to the vector index.
func (s *IndexedStore) FindSimilar(ctx context.Context, userID string, queryEmbedding []float32, candidatePool, limit int) ([]ContextEntry, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.FindSimilar(ctx, userID, queryEmbedding, candidatePool, limit)
}
