// Package rotation writes articles to the primary store and keeps it bounded,
// archiving evicted records into the history ledger first.
package rotation

import (
	"context"
	"errors"
	"fmt"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/persistence"
)

// ErrInvalidArticle is returned by Write for records missing required fields.
var ErrInvalidArticle = errors.New("invalid article")

// Archiver records an evicted article's title and sources. history.Accessor
// satisfies it.
type Archiver interface {
	Append(ctx context.Context, title string, sourceURLs []string, origin string) bool
}

// Writer inserts finished articles.
type Writer struct {
	repo persistence.ArticleRepository
}

// NewWriter creates a writer over repo.
func NewWriter(repo persistence.ArticleRepository) *Writer {
	return &Writer{repo: repo}
}

// Write validates and inserts one article.
func (w *Writer) Write(ctx context.Context, article *core.Article) error {
	if err := Validate(article); err != nil {
		return err
	}
	if err := w.repo.Create(ctx, article); err != nil {
		return fmt.Errorf("failed to write article: %w", err)
	}
	logger.Info("Article written", "id", article.ID, "title", article.Title, "category", string(article.Category))
	return nil
}

// Validate checks the fields every stored article must carry.
func Validate(a *core.Article) error {
	switch {
	case a == nil:
		return fmt.Errorf("%w: nil", ErrInvalidArticle)
	case a.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidArticle)
	case a.Title == "":
		return fmt.Errorf("%w: missing title", ErrInvalidArticle)
	case a.Body == "":
		return fmt.Errorf("%w: missing body", ErrInvalidArticle)
	case a.ImageURL == "":
		return fmt.Errorf("%w: missing image url", ErrInvalidArticle)
	case !a.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArticle, a.Category)
	case a.CreatedAt.IsZero():
		return fmt.Errorf("%w: missing creation time", ErrInvalidArticle)
	}
	return nil
}

// Evictor trims the primary store down to a minimum count.
type Evictor struct {
	repo      persistence.ArticleRepository
	archive   Archiver
	batchSize int
}

// NewEvictor creates an evictor. archive may be nil, in which case evicted
// records are not archived.
func NewEvictor(repo persistence.ArticleRepository, archive Archiver) *Evictor {
	return &Evictor{repo: repo, archive: archive, batchSize: persistence.MaxBatchSize}
}

// WithBatchSize lowers the per-commit delete size. Values above
// persistence.MaxBatchSize are capped.
func (e *Evictor) WithBatchSize(n int) *Evictor {
	if n > 0 && n <= persistence.MaxBatchSize {
		e.batchSize = n
	}
	return e
}

// EvictExcess deletes the oldest records so that at most minKeep remain.
// Each record is archived before the batch holding it is deleted. It returns
// the number deleted, which is accurate even when a later batch fails.
func (e *Evictor) EvictExcess(ctx context.Context, minKeep int) (int, error) {
	if minKeep < 0 {
		minKeep = 0
	}

	records, err := e.repo.ListOldestFirst(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list articles: %w", err)
	}

	excess := len(records) - minKeep
	if excess <= 0 {
		logger.Debug("No eviction needed", "count", len(records), "min_keep", minKeep)
		return 0, nil
	}

	victims := records[:excess]
	logger.Info("Evicting oldest articles", "count", len(records), "min_keep", minKeep, "evicting", excess)

	ids := make([]string, len(victims))
	for i, a := range victims {
		ids[i] = a.ID
	}

	deleted := 0
	for _, batch := range persistence.Batches(ids, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		if e.archive != nil {
			for _, a := range victims[deleted : deleted+len(batch)] {
				e.archive.Append(ctx, a.Title, a.SourceURLs, core.OriginEviction)
			}
		}

		if err := e.repo.DeleteBatch(ctx, batch); err != nil {
			return deleted, fmt.Errorf("failed to delete article batch: %w", err)
		}
		deleted += len(batch)
		metrics.ArticlesEvicted.Add(float64(len(batch)))
		logger.Debug("Deleted article batch", "size", len(batch), "deleted", deleted)
	}

	logger.Info("Eviction complete", "deleted", deleted)
	return deleted, nil
}
