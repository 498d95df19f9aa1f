// Package history reads and writes the dedup ledger of previously published
// titles and source URLs.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newscycle/internal/core"
	"newscycle/internal/dedup"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/persistence"
)

// Accessor wraps a HistoryRepository with normalization and TTL handling.
type Accessor struct {
	repo persistence.HistoryRepository
	now  func() time.Time
}

// NewAccessor creates an accessor over repo.
func NewAccessor(repo persistence.HistoryRepository) *Accessor {
	return &Accessor{repo: repo, now: time.Now}
}

// WithClock overrides the time source (used by tests).
func (a *Accessor) WithClock(now func() time.Time) *Accessor {
	a.now = now
	return a
}

// LoadKnownURLs scans every entry and returns the union of its normalized URLs.
func (a *Accessor) LoadKnownURLs(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	err := a.repo.Stream(ctx, func(e core.HistoryEntry) error {
		for _, u := range e.SourceURLs {
			if u == "" {
				continue
			}
			known[dedup.NormalizeURL(u)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load known urls: %w", err)
	}
	return known, nil
}

// LoadRecentTitles returns up to limit titles, newest first, skipping blanks and repeats.
func (a *Accessor) LoadRecentTitles(ctx context.Context, limit int) ([]string, error) {
	entries, err := a.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent titles: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" || seen[e.Title] {
			continue
		}
		seen[e.Title] = true
		titles = append(titles, e.Title)
	}
	return titles, nil
}

// Append records one entry. It never fails the caller: write errors are
// logged and reported as false.
func (a *Accessor) Append(ctx context.Context, title string, sourceURLs []string, origin string) bool {
	entry := &core.HistoryEntry{
		ID:         uuid.NewString(),
		Title:      title,
		SourceURLs: dedup.NormalizeURLs(sourceURLs),
		Origin:     origin,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.repo.Add(ctx, entry); err != nil {
		logger.Error("Failed to append history entry", err, "title", title, "origin", origin)
		return false
	}
	logger.Debug("History entry appended", "title", title, "origin", origin, "urls", len(entry.SourceURLs))
	return true
}

// PurgeOlderThan deletes entries created strictly before now minus ttlDays,
// in batches of at most persistence.MaxBatchSize. It returns the number deleted
// even when a later batch fails.
func (a *Accessor) PurgeOlderThan(ctx context.Context, ttlDays int) (int, error) {
	cutoff := a.now().UTC().Add(-time.Duration(ttlDays) * 24 * time.Hour)
	ids, err := a.repo.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired history: %w", err)
	}

	deleted := 0
	for _, batch := range persistence.Batches(ids, persistence.MaxBatchSize) {
		if err := a.repo.DeleteBatch(ctx, batch); err != nil {
			return deleted, fmt.Errorf("failed to purge history batch: %w", err)
		}
		deleted += len(batch)
		metrics.HistoryPurged.Add(float64(len(batch)))
	}

	if deleted > 0 {
		logger.Info("Purged expired history", "deleted", deleted, "ttl_days", ttlDays)
	}
	return deleted, nil
}
