// Package mocks provides func-field test doubles for the pipeline stages.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"newscycle/internal/article"
	"newscycle/internal/core"
	"newscycle/internal/dedup"
	"newscycle/internal/objectstore"
	"newscycle/internal/search"
	"newscycle/internal/visual"
)

// MockSourceFinder provides a mock implementation of pipeline.SourceFinder
type MockSourceFinder struct {
	Topic    string
	FindFunc func(ctx context.Context, query string, known dedup.Known) (*search.Outcome, error)

	mu      sync.Mutex
	Known   []dedup.Known
	Queries []string
}

func (m *MockSourceFinder) PickTopic() string {
	if m.Topic != "" {
		return m.Topic
	}
	return "mock topic news"
}

func (m *MockSourceFinder) Find(ctx context.Context, query string, known dedup.Known) (*search.Outcome, error) {
	m.mu.Lock()
	m.Known = append(m.Known, known)
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.FindFunc != nil {
		return m.FindFunc(ctx, query, known)
	}
	return &search.Outcome{
		Results: []core.SearchResult{
			{Title: "Mock story", Description: "Mock description of a story", URL: "https://mock.example/story"},
		},
		Query:    query,
		Tier:     1,
		Provider: "mock",
	}, nil
}

// MockArticleWriter provides a mock implementation of pipeline.ArticleWriter
type MockArticleWriter struct {
	GenerateFunc    func(ctx context.Context, results []core.SearchResult, historyTitles []string) (*article.Draft, error)
	HeadlineFunc    func(ctx context.Context, body string) string
	ImagePromptFunc func(ctx context.Context, body string) string
}

func (m *MockArticleWriter) Generate(ctx context.Context, results []core.SearchResult, historyTitles []string) (*article.Draft, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, results, historyTitles)
	}
	body := "Mock article body about a story that happened today."
	return &article.Draft{Body: body, Backend: "mock", WordCount: core.WordCount(body)}, nil
}

func (m *MockArticleWriter) Headline(ctx context.Context, body string) string {
	if m.HeadlineFunc != nil {
		return m.HeadlineFunc(ctx, body)
	}
	return "Mock Headline About Today's Story"
}

func (m *MockArticleWriter) ImagePrompt(ctx context.Context, body string) string {
	if m.ImagePromptFunc != nil {
		return m.ImagePromptFunc(ctx, body)
	}
	return "A photorealistic mock scene"
}

// MockImageGenerator provides a mock implementation of pipeline.ImageGenerator
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) *visual.Image
	Prompts      []string
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) *visual.Image {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return &visual.Image{Data: []byte("mock-image-bytes"), Provider: "mock", Prompt: prompt}
}

// MockImagePublisher provides a mock implementation of pipeline.ImagePublisher
type MockImagePublisher struct {
	PublishFunc func(ctx context.Context, img *visual.Image, key string) objectstore.Publication
	Keys        []string
}

func (m *MockImagePublisher) Publish(ctx context.Context, img *visual.Image, key string) objectstore.Publication {
	m.Keys = append(m.Keys, key)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, img, key)
	}
	source := core.ImageGenerated
	if img == nil || img.Placeholder {
		source = core.ImagePlaceholder
	}
	return objectstore.Publication{URL: fmt.Sprintf("https://cdn.mock/%s.png", key), Source: source, Provider: "mock"}
}

// MockHealthReporter provides a mock implementation of pipeline.HealthReporter
type MockHealthReporter struct {
	Successes []core.HealthRecord
	Failures  []core.HealthRecord
	Errors    []error
}

func (m *MockHealthReporter) Success(ctx context.Context, record core.HealthRecord) *core.HealthRecord {
	record.Status = core.HealthSuccess
	m.Successes = append(m.Successes, record)
	return &record
}

func (m *MockHealthReporter) Failure(ctx context.Context, record core.HealthRecord, err error) *core.HealthRecord {
	record.Status = core.HealthFailed
	if err != nil {
		record.Error = err.Error()
	}
	m.Failures = append(m.Failures, record)
	m.Errors = append(m.Errors, err)
	return &record
}
