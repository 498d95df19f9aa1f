package pipeline

import (
	"context"

	"newscycle/internal/article"
	"newscycle/internal/core"
	"newscycle/internal/dedup"
	"newscycle/internal/objectstore"
	"newscycle/internal/search"
	"newscycle/internal/visual"
)

// Component interfaces for dependency injection and testing.

// SourceFinder picks topics and finds fresh search results
type SourceFinder interface {
	PickTopic() string
	Find(ctx context.Context, query string, known dedup.Known) (*search.Outcome, error)
}

// ArticleWriter turns search results into article text, a headline and an image prompt
type ArticleWriter interface {
	Generate(ctx context.Context, results []core.SearchResult, historyTitles []string) (*article.Draft, error)
	Headline(ctx context.Context, body string) string
	ImagePrompt(ctx context.Context, body string) string
}

// ImageGenerator always returns an image, falling back to a placeholder
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) *visual.Image
}

// ImagePublisher uploads image bytes and never fails
type ImagePublisher interface {
	Publish(ctx context.Context, img *visual.Image, key string) objectstore.Publication
}

// RecordWriter inserts one finished article into the primary store
type RecordWriter interface {
	Write(ctx context.Context, a *core.Article) error
}

// Evictor trims the primary store to its capacity floor
type Evictor interface {
	EvictExcess(ctx context.Context, minKeep int) (int, error)
}

// HistoryLedger is the dedup memory
type HistoryLedger interface {
	LoadKnownURLs(ctx context.Context) (map[string]struct{}, error)
	LoadRecentTitles(ctx context.Context, limit int) ([]string, error)
	Append(ctx context.Context, title string, sourceURLs []string, origin string) bool
	PurgeOlderThan(ctx context.Context, ttlDays int) (int, error)
}

// HealthReporter records the outcome of each run
type HealthReporter interface {
	Success(ctx context.Context, record core.HealthRecord) *core.HealthRecord
	Failure(ctx context.Context, record core.HealthRecord, err error) *core.HealthRecord
}

// Categorizer assigns a category from keyword scores
type Categorizer interface {
	Classify(query, title, body string) core.Category
}
