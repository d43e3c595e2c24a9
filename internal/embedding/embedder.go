package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"deardiary/internal/logging"
	"deardiary/internal/retry"
)

// Config holds embedding provider configuration.
type Config struct {
	APIKey     string
	Model      string // default "text-embedding-004"
	BaseURL    string // optional, defaults to the Gemini API
	Dimensions int    // default 768
	CacheSize  int    // LRU cache size, default 10000
}

// Embedder generates text embeddings.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector length.
	Dimensions() int
}

// geminiEmbedder implements Embedder against the Gemini embedContent API.
type geminiEmbedder struct {
	config     Config
	httpClient *http.Client
	cache      *lru.Cache[string, []float32]
	logger     logging.Logger
}

// NewGeminiEmbedder creates an embedder backed by the Gemini API.
func NewGeminiEmbedder(config Config) (Embedder, error) {
	if config.Model == "" {
		config.Model = "text-embedding-004"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Dimensions == 0 {
		config.Dimensions = 768
	}
	if config.CacheSize == 0 {
		config.CacheSize = 10000
	}

	cache, err := lru.New[string, []float32](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &geminiEmbedder{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache,
		logger: logging.NewComponentLogger("embedder"),
	}, nil
}

// Embed generates an embedding for a single text, serving repeats from the
// LRU cache and retrying transient API failures with backoff.
func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	var vector []float32
	err := retry.DoWithLog(ctx, retry.Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}, func(ctx context.Context) error {
		var callErr error
		vector, callErr = e.callAPI(ctx, text)
		return callErr
	}, e.logger)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	e.cache.Add(text, vector)
	return vector, nil
}

// Dimensions returns the embedding vector length.
func (e *geminiEmbedder) Dimensions() int {
	return e.config.Dimensions
}

func (e *geminiEmbedder) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{
		"model": "models/" + e.config.Model,
		"content": map[string]any{
			"parts": []map[string]string{{"text": text}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s",
		strings.TrimRight(e.config.BaseURL, "/"), e.config.Model, e.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return apiResp.Embedding.Values, nil
}
