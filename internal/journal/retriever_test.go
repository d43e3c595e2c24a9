package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results []ContextEntry
	err     error
}

func (s stubSearcher) FindSimilar(context.Context, string, []float32, int, int) ([]ContextEntry, error) {
	return s.results, s.err
}

func seedEntries(t *testing.T, store *InMemoryStore, userID string, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := store.Insert(context.Background(), Entry{
			UserID:    userID,
			Content:   fmt.Sprintf("entry %d", i+1),
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}
}

func TestRetrieve_SimilarityOrder(t *testing.T) {
	store := NewInMemoryStore()
	searcher := stubSearcher{results: []ContextEntry{
		{Content: "most similar", Similarity: 0.92},
		{Content: "second", Similarity: 0.71},
		{Content: "third", Similarity: 0.55},
	}}
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store, searcher, nil)

	got := r.Retrieve(context.Background(), "user-1", []float32{0.1, 0.2})
	require.Len(t, got, 3)
	assert.Equal(t, "most similar", got[0].Content)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestRetrieve_SearchErrorFallsBack(t *testing.T) {
	store := NewInMemoryStore()
	seedEntries(t, store, "user-1", 7)
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store,
		stubSearcher{err: fmt.Errorf("index not provisioned")}, nil)

	got := r.Retrieve(context.Background(), "user-1", []float32{0.1})
	require.Len(t, got, 5)
	// Chronological fallback returns the 5 most recent, oldest first.
	assert.Equal(t, "entry 3", got[0].Content)
	assert.Equal(t, "entry 7", got[4].Content)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
}

func TestRetrieve_EmptySearchFallsBack(t *testing.T) {
	store := NewInMemoryStore()
	seedEntries(t, store, "user-1", 2)
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store, stubSearcher{}, nil)

	got := r.Retrieve(context.Background(), "user-1", []float32{0.1})
	require.Len(t, got, 2)
	assert.Equal(t, "entry 1", got[0].Content)
	assert.Equal(t, "entry 2", got[1].Content)
}

func TestRetrieve_NoEmbeddingUsesChronological(t *testing.T) {
	store := NewInMemoryStore()
	seedEntries(t, store, "user-1", 3)
	searcher := stubSearcher{results: []ContextEntry{{Content: "should not be used"}}}
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store, searcher, nil)

	got := r.Retrieve(context.Background(), "user-1", nil)
	require.Len(t, got, 3)
	assert.Equal(t, "entry 1", got[0].Content)
}

func TestRetrieve_NewUserReturnsEmpty(t *testing.T) {
	store := NewInMemoryStore()
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store, nil, nil)

	got := r.Retrieve(context.Background(), "user-1", nil)
	assert.Empty(t, got)
}

func TestRetrieve_OtherUsersInvisible(t *testing.T) {
	store := NewInMemoryStore()
	seedEntries(t, store, "user-2", 4)
	r := NewRetriever(RetrieverConfig{Limit: 5, CandidatePool: 50}, store, nil, nil)

	got := r.Retrieve(context.Background(), "user-1", nil)
	assert.Empty(t, got)
}
