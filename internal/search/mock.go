package search

import (
	"context"
	"sync"

	"newscycle/internal/core"
)

// MockProvider implements Provider for testing purposes. Responses are served
// per query when set, otherwise the default results are returned.
type MockProvider struct {
	mu      sync.Mutex
	name    string
	results []core.SearchResult
	byQuery map[string][]core.SearchResult
	err     error
	calls   []MockCall
}

// MockCall records one Search invocation
type MockCall struct {
	Query string
	Days  int
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:    "Mock",
		byQuery: make(map[string][]core.SearchResult),
		results: []core.SearchResult{
			{
				URL:         "https://example.com/article1",
				Title:       "Example Article 1",
				Description: "This is a mock search result for testing purposes.",
			},
			{
				URL:         "https://test.org/article2",
				Title:       "Test Article 2",
				Description: "Another mock search result with different content.",
			},
			{
				URL:         "https://demo.net/article3",
				Title:       "Demo Article 3",
				Description: "Third mock result to simulate multiple search results.",
			},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns mock search results
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Query: query, Days: config.Days()})

	if m.err != nil {
		return nil, m.err
	}

	source := m.results
	if r, ok := m.byQuery[query]; ok {
		source = r
	}

	n := len(source)
	if config.MaxResults > 0 && config.MaxResults < n {
		n = config.MaxResults
	}
	return append([]core.SearchResult(nil), source[:n]...), nil
}

// SetResults sets the default results
func (m *MockProvider) SetResults(results []core.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

// SetQueryResults sets the results returned for one specific query
func (m *MockProvider) SetQueryResults(query string, results []core.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byQuery[query] = results
}

// SetError makes every Search call fail with err
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}

// Calls returns every Search invocation so far
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
