package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

// VectorIndexConfig holds similarity index configuration.
type VectorIndexConfig struct {
	PersistPath string // Directory to persist index data; empty keeps it in memory
	Collection  string // Collection name prefix
}

// EmbedFunc produces an embedding for a text. The index only needs it when
// chromem has to embed internally (it never does for entries, which always
// arrive with a precomputed vector).
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// VectorIndex maintains one chromem-go collection per user so similarity
// queries are naturally scoped and candidate pools can be sized against the
// user's own document count.
type VectorIndex struct {
	db     *chromem.DB
	config VectorIndexConfig
	embed  EmbedFunc

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewVectorIndex creates a similarity index backed by chromem-go.
func NewVectorIndex(config VectorIndexConfig, embed EmbedFunc) (*VectorIndex, error) {
	if config.Collection == "" {
		config.Collection = "journal"
	}

	var db *chromem.DB
	var err error
	if config.PersistPath != "" {
		persistFile := filepath.Join(config.PersistPath, "chromem.gob")
		db, err = chromem.NewPersistentDB(persistFile, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &VectorIndex{
		db:          db,
		config:      config,
		embed:       embed,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (x *VectorIndex) collection(userID string, create bool) (*chromem.Collection, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if col, ok := x.collections[userID]; ok {
		return col, nil
	}

	name := x.config.Collection + "-" + userID
	if !create {
		col := x.db.GetCollection(name, chromem.EmbeddingFunc(x.embed))
		if col != nil {
			x.collections[userID] = col
		}
		return col, nil
	}

	col, err := x.db.GetOrCreateCollection(name, nil, chromem.EmbeddingFunc(x.embed))
	if err != nil {
		return nil, fmt.Errorf("create collection for user: %w", err)
	}
	x.collections[userID] = col
	return col, nil
}

// Add indexes one entry's embedding. Entries without embeddings are skipped.
func (x *VectorIndex) Add(ctx context.Context, entry Entry) error {
	if len(entry.Embedding) == 0 {
		return nil
	}

	col, err := x.collection(entry.UserID, true)
	if err != nil {
		return err
	}

	return col.AddDocument(ctx, chromem.Document{
		ID:        entry.ID,
		Content:   entry.Content,
		Embedding: entry.Embedding,
		Metadata: map[string]string{
			"mood":       string(entry.Mood),
			"created_at": entry.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

// FindSimilar returns the user's closest entries to the query embedding in
// descending similarity order. A user with no indexed entries yields an
// empty result, not an error.
func (x *VectorIndex) FindSimilar(ctx context.Context, userID string, queryEmbedding []float32, candidatePool, limit int) ([]ContextEntry, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if limit <= 0 {
		limit = 5
	}
	if candidatePool < limit {
		candidatePool = limit
	}

	col, err := x.collection(userID, false)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if candidatePool > count {
		candidatePool = count
	}

	results, err := col.QueryEmbedding(ctx, queryEmbedding, candidatePool, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	entries := make([]ContextEntry, 0, len(results))
	for _, r := range results {
		entry := ContextEntry{
			Content:    r.Content,
			Mood:       Mood(r.Metadata["mood"]),
			Similarity: r.Similarity,
		}
		if ts, err := time.Parse(time.RFC3339, r.Metadata["created_at"]); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Count reports how many entries are indexed for the user.
func (x *VectorIndex) Count(userID string) int {
	col, _ := x.collection(userID, false)
	if col == nil {
		return 0
	}
	return col.Count()
}
