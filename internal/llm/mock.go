package llm

import (
	"context"
	"sync"
)

// MockBackend replays scripted responses, one per call. The last entry repeats.
type MockBackend struct {
	mu        sync.Mutex
	name      string
	responses []string
	errs      []error
	requests  []Request
}

// NewMockBackend creates a mock that answers with responses in order.
func NewMockBackend(name string, responses ...string) *MockBackend {
	return &MockBackend{name: name, responses: responses}
}

// SetErrors scripts per-call errors. A nil entry means the call succeeds.
func (m *MockBackend) SetErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
}

// Name implements Backend.
func (m *MockBackend) Name() string { return m.name }

// Complete implements Backend.
func (m *MockBackend) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.requests)
	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if len(m.responses) == 0 {
		return "", ErrEmptyResponse
	}
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

// Requests returns a copy of every request seen so far.
func (m *MockBackend) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
