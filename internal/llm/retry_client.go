package llm

import (
	"context"
	"time"

	"deardiary/internal/logging"
	"deardiary/internal/retry"
)

// retryClient wraps a provider client with retry logic.
type retryClient struct {
	underlying  Client
	retryConfig retry.Config
	logger      logging.Logger
}

// NewRetryClient wraps a provider client with exponential-backoff retries.
func NewRetryClient(client Client, retryConfig retry.Config) Client {
	return &retryClient{
		underlying:  client,
		retryConfig: retryConfig,
		logger:      logging.NewComponentLogger("llm-retry"),
	}
}

// Complete executes the completion with retry logic.
func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	var resp *CompletionResponse
	err := retry.DoWithLog(ctx, c.retryConfig, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.underlying.Complete(ctx, req)
		return callErr
	}, c.logger)

	duration := time.Since(startTime)
	if err != nil {
		c.logger.Warn("completion failed after retries (took %v): %v", duration, err)
		return nil, err
	}
	if duration > 5*time.Second {
		c.logger.Debug("completion succeeded after %v", duration)
	}
	return resp, nil
}

// Model returns the underlying model name.
func (c *retryClient) Model() string {
	return c.underlying.Model()
}
