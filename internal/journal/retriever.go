package journal

import (
	"context"

	"deardiary/internal/logging"
	"deardiary/internal/observability"
)

// RetrieverConfig holds retrieval configuration.
type RetrieverConfig struct {
	Limit         int // Number of context entries to return (default: 5)
	CandidatePool int // Similarity candidates explored before keeping Limit (default: 50)
}

// Retriever selects prior entries to serve as conversational context for a
// new analysis.
//
// Similarity search surfaces thematically related history even across time
// gaps; when it is unavailable, errors, or finds nothing, retrieval falls
// back to the user's most recent entries. The retriever never fails: any
// degraded dependency degrades to less context, ultimately an empty slice.
type Retriever struct {
	config   RetrieverConfig
	store    EntryStore
	searcher SimilaritySearcher
	metrics  *observability.MetricsCollector
	logger   logging.Logger
}

// NewRetriever creates a context retriever.
func NewRetriever(config RetrieverConfig, store EntryStore, searcher SimilaritySearcher, metrics *observability.MetricsCollector) *Retriever {
	if config.Limit <= 0 {
		config.Limit = 5
	}
	if config.CandidatePool < config.Limit {
		config.CandidatePool = 50
	}
	return &Retriever{
		config:   config,
		store:    store,
		searcher: searcher,
		metrics:  metrics,
		logger:   logging.NewComponentLogger("retriever"),
	}
}

// Retrieve returns up to the configured limit of context entries.
//
// With a query embedding the result is ordered by descending similarity.
// On fallback the result is the most recent entries reordered oldest to
// newest, preserving narrative chronology for the prompt.
func (r *Retriever) Retrieve(ctx context.Context, userID string, queryEmbedding []float32) []ContextEntry {
	if len(queryEmbedding) > 0 && r.searcher != nil {
		matches, err := r.searcher.FindSimilar(ctx, userID, queryEmbedding, r.config.CandidatePool, r.config.Limit)
		if err != nil {
			r.logger.Warn("similarity search for user %s failed, using chronological fallback: %v", userID, err)
			r.metrics.RecordRetrievalFallback(ctx, "search_error")
			return r.chronological(ctx, userID)
		}
		if len(matches) > 0 {
			return matches
		}
		r.metrics.RecordRetrievalFallback(ctx, "no_matches")
	} else {
		r.metrics.RecordRetrievalFallback(ctx, "no_embedding")
	}
	return r.chronological(ctx, userID)
}

func (r *Retriever) chronological(ctx context.Context, userID string) []ContextEntry {
	entries, err := r.store.FindRecent(ctx, userID, r.config.Limit)
	if err != nil {
		r.logger.Warn("chronological retrieval for user %s failed: %v", userID, err)
		r.metrics.RecordAbsorbedFailure(ctx, "retrieval")
		return nil
	}

	// FindRecent is newest first; reverse so the prompt reads oldest to newest.
	out := make([]ContextEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, ContextEntry{
			Content:   entries[i].Content,
			Mood:      entries[i].Mood,
			CreatedAt: entries[i].CreatedAt,
		})
	}
	return out
}
