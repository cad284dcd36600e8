package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
)

// RetryConfig configures exponential backoff for LLM calls.
type RetryConfig struct {
	InitialInterval time.Duration // default 1s
	MaxInterval     time.Duration // default 30s
	MaxElapsedTime  time.Duration // default 2min
	Multiplier      float64       // default 2.0
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
		Multiplier:      2.0,
	}
}

// RetryClient wraps a Client with exponential backoff on transient failures.
// Permanent errors (and anything marked non-retryable by the error taxonomy)
// fail immediately.
type RetryClient struct {
	inner Client
	cfg   RetryConfig
}

// NewRetryClient wraps an adapter with retry behavior.
func NewRetryClient(inner Client, cfg RetryConfig) *RetryClient {
	defaults := DefaultRetryConfig()
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = defaults.MaxElapsedTime
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = defaults.Multiplier
	}
	return &RetryClient{inner: inner, cfg: cfg}
}

// Complete implements the Client interface.
func (c *RetryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval
	b.MaxElapsedTime = c.cfg.MaxElapsedTime
	b.Multiplier = c.cfg.Multiplier

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		result, err := c.inner.Complete(ctx, req)
		if err == nil {
			resp = result
			return nil
		}

		// Structured errors decide their own retry semantics. Raw adapter
		// errors are treated as transient: the provider boundary is a
		// network boundary.
		if errors.AsError(err) != nil && !errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
