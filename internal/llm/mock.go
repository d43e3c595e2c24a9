package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Client for tests.
type MockClient struct {
	// Response is returned verbatim as the completion content.
	Response string
	// Err, when set, fails every call.
	Err error

	mu       sync.Mutex
	requests []CompletionRequest
}

// Complete records the request and returns the canned response.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	content := m.Response
	if content == "" {
		content = `{}`
	}
	return &CompletionResponse{
		Content: content,
		Model:   m.Model(),
		Usage:   TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

// Model returns a fixed mock model name.
func (m *MockClient) Model() string {
	return "mock-model"
}

// Requests returns a copy of every recorded request.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request or an error if none were made.
func (m *MockClient) LastRequest() (CompletionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return CompletionRequest{}, fmt.Errorf("no requests recorded")
	}
	return m.requests[len(m.requests)-1], nil
}
