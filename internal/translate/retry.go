package translate

import (
	"context"
	"fmt"
	"time"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// RetryProvider wraps a provider and retries failed calls with
// exponential backoff. Context cancellation stops the retry loop.
type RetryProvider struct {
	inner    Provider
	attempts int
	backoff  time.Duration
}

// NewRetryProvider wraps inner so every call is tried up to attempts times
func NewRetryProvider(inner Provider, attempts int) *RetryProvider {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryProvider{
		inner:    inner,
		attempts: attempts,
		backoff:  initialBackoff,
	}
}

// Translate calls the wrapped provider until it succeeds or attempts run out
func (r *RetryProvider) Translate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	wait := r.backoff

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > maxBackoff {
				wait = maxBackoff
			}
		}

		out, err := r.inner.Translate(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// A canceled context will not recover, bail out right away
		if ctx.Err() != nil {
			return "", lastErr
		}
	}

	return "", fmt.Errorf("all %d attempts failed: %w", r.attempts, lastErr)
}

// Name returns the wrapped provider's name
func (r *RetryProvider) Name() string {
	return r.inner.Name()
}

// IsAvailable checks the wrapped provider
func (r *RetryProvider) IsAvailable() error {
	return r.inner.IsAvailable()
}
