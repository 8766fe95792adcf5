package translate

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerProvider wraps a provider with a circuit breaker. After enough
// consecutive failures the endpoint gets a cool-down period during which
// calls fail immediately instead of going out.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps inner with a circuit breaker
func NewBreakerProvider(inner Provider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &BreakerProvider{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Translate runs the wrapped call through the circuit breaker
func (b *BreakerProvider) Translate(ctx context.Context, req Request) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Translate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Name returns the wrapped provider's name
func (b *BreakerProvider) Name() string {
	return b.inner.Name()
}

// IsAvailable checks the wrapped provider
func (b *BreakerProvider) IsAvailable() error {
	return b.inner.IsAvailable()
}
