package llm

import (
	"context"
	"time"
)

// Config configures a provider client.
type Config struct {
	// Provider selects the implementation: "gemini" or "ollama". Exactly one
	// provider is active per deployment.
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic completion request.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int

	// ForceJSON asks the provider for a JSON-only response when it supports
	// constrained output.
	ForceJSON bool
}

// TokenUsage reports token accounting when the provider supplies it.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is a provider-agnostic completion result.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// Client is the one contract every language model provider implements.
// Implementations are interchangeable and selected by static configuration.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}
