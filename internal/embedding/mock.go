package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MockEmbedder implements Embedder for tests. It derives a deterministic
// vector from the text so equal texts embed equally.
type MockEmbedder struct {
	Dims int
	Err  error // When set, every Embed call fails with this error.
}

// Embed returns a deterministic pseudo-embedding or the configured error.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	dims := m.Dims
	if dims <= 0 {
		dims = 8
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float32, dims)
	for i := range vector {
		seed = seed*6364136223846793005 + 1442695040888963407
		vector[i] = float32(seed%2000)/1000 - 1
	}
	return vector, nil
}

// Dimensions returns the configured vector length.
func (m *MockEmbedder) Dimensions() int {
	if m.Dims <= 0 {
		return 8
	}
	return m.Dims
}
