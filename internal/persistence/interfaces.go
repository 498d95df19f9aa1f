// Package persistence provides the storage abstractions for published articles,
// the dedup history ledger and the last-run health record.
package persistence

import (
	"context"
	"time"

	"newscycle/internal/core"
)

// MaxBatchSize is the largest number of ids a single DeleteBatch call accepts.
const MaxBatchSize = 400

// ArticleRepository handles the capacity-bounded primary collection
type ArticleRepository interface {
	// Create inserts a new article
	Create(ctx context.Context, article *core.Article) error

	// Get retrieves an article by ID
	Get(ctx context.Context, id string) (*core.Article, error)

	// ListOldestFirst returns every article ordered by creation time ascending
	ListOldestFirst(ctx context.Context) ([]core.Article, error)

	// ListRecent returns up to limit articles, newest first
	ListRecent(ctx context.Context, limit int) ([]core.Article, error)

	// Count returns the number of stored articles
	Count(ctx context.Context) (int, error)

	// DeleteBatch removes up to MaxBatchSize articles in one commit
	DeleteBatch(ctx context.Context, ids []string) error
}

// HistoryRepository handles the dedup ledger
type HistoryRepository interface {
	// Add inserts one entry
	Add(ctx context.Context, entry *core.HistoryEntry) error

	// Stream calls fn for every entry; a non-nil error from fn stops the scan
	Stream(ctx context.Context, fn func(core.HistoryEntry) error) error

	// ListRecent returns up to limit entries, newest first
	ListRecent(ctx context.Context, limit int) ([]core.HistoryEntry, error)

	// ListOlderThan returns ids of entries created strictly before cutoff
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)

	// DeleteBatch removes up to MaxBatchSize entries in one commit
	DeleteBatch(ctx context.Context, ids []string) error
}

// HealthRepository keeps the single last-run record
type HealthRepository interface {
	Put(ctx context.Context, record *core.HealthRecord) error
	Latest(ctx context.Context) (*core.HealthRecord, error)
}

// Database provides access to all repositories
type Database interface {
	Articles() ArticleRepository
	History() HistoryRepository
	Health() HealthRepository

	Ping(ctx context.Context) error
	Close() error
}

// Batches splits ids into consecutive chunks of at most size elements.
func Batches(ids []string, size int) [][]string {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// TimeLayout is a fixed-width UTC layout whose lexical order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a value written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
