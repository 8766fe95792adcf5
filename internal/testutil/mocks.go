package testutil

import (
	"context"
	"sync"
	"time"

	"codeberg.org/snonux/aitdocs/internal/translate"
)

// MockProvider mocks a translation provider. Requests echo back with a
// language marker unless an explicit reply or error is configured for
// that exact text. Safe for concurrent use.
type MockProvider struct {
	Replies      map[string]string
	Errors       map[string]error
	AvailableErr error
	Delay        time.Duration

	mu    sync.Mutex
	calls []translate.Request
}

// Translate mocks a provider call
func (m *MockProvider) Translate(ctx context.Context, req translate.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if err, ok := m.Errors[req.Text]; ok {
		return "", err
	}
	if reply, ok := m.Replies[req.Text]; ok {
		return reply, nil
	}

	// Default mock translation
	return "[" + req.TargetLang + "] " + req.Text, nil
}

// Name returns the mock provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// IsAvailable returns the configured availability error, if any
func (m *MockProvider) IsAvailable() error {
	return m.AvailableErr
}

// Calls returns a copy of all requests seen so far
func (m *MockProvider) Calls() []translate.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]translate.Request(nil), m.calls...)
}

// CallCount returns how many translation requests were made
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
