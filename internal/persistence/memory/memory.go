// Package memory is an in-process persistence.Database used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/persistence"
)

// ensure DB implements persistence.Database
var _ persistence.Database = (*DB)(nil)

// DB keeps every collection in maps guarded by one mutex.
type DB struct {
	mu       sync.RWMutex
	articles map[string]core.Article
	history  map[string]core.HistoryEntry
	health   *core.HealthRecord

	// DeleteCalls counts DeleteBatch invocations per collection, for batching assertions.
	DeleteCalls map[string]int
}

// New returns an empty database.
func New() *DB {
	return &DB{
		articles:    make(map[string]core.Article),
		history:     make(map[string]core.HistoryEntry),
		DeleteCalls: make(map[string]int),
	}
}

func (d *DB) Articles() persistence.ArticleRepository { return (*articleRepo)(d) }
func (d *DB) History() persistence.HistoryRepository  { return (*historyRepo)(d) }
func (d *DB) Health() persistence.HealthRepository    { return (*healthRepo)(d) }

func (d *DB) Ping(ctx context.Context) error { return nil }
func (d *DB) Close() error                   { return nil }

// DeleteCount returns how many DeleteBatch calls hit the named collection.
func (d *DB) DeleteCount(collection string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.DeleteCalls[collection]
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

type articleRepo DB

func (r *articleRepo) Create(ctx context.Context, a *core.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.articles[a.ID]; exists {
		return fmt.Errorf("article %s: %w", a.ID, persistence.ErrDuplicateID)
	}
	stored := *a
	stored.SourceURLs = cloneStrings(a.SourceURLs)
	stored.CreatedAt = a.CreatedAt.UTC()
	r.articles[a.ID] = stored
	return nil
}

func (r *articleRepo) Get(ctx context.Context, id string) (*core.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.articles[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	a.SourceURLs = cloneStrings(a.SourceURLs)
	return &a, nil
}

func (r *articleRepo) sorted() []core.Article {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Article, 0, len(r.articles))
	for _, a := range r.articles {
		a.SourceURLs = cloneStrings(a.SourceURLs)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *articleRepo) ListOldestFirst(ctx context.Context) ([]core.Article, error) {
	return r.sorted(), nil
}

func (r *articleRepo) ListRecent(ctx context.Context, limit int) ([]core.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	all := r.sorted()
	out := make([]core.Article, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *articleRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.articles), nil
}

func (r *articleRepo) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) > persistence.MaxBatchSize {
		return persistence.ErrBatchTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeleteCalls["articles"]++
	for _, id := range ids {
		delete(r.articles, id)
	}
	return nil
}

type historyRepo DB

func (r *historyRepo) Add(ctx context.Context, e *core.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *e
	stored.SourceURLs = cloneStrings(e.SourceURLs)
	stored.CreatedAt = e.CreatedAt.UTC()
	r.history[e.ID] = stored
	return nil
}

func (r *historyRepo) snapshot() []core.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.HistoryEntry, 0, len(r.history))
	for _, e := range r.history {
		e.SourceURLs = cloneStrings(e.SourceURLs)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *historyRepo) Stream(ctx context.Context, fn func(core.HistoryEntry) error) error {
	for _, e := range r.snapshot() {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	all := r.snapshot()
	out := make([]core.HistoryEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *historyRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	for _, e := range r.snapshot() {
		if e.CreatedAt.Before(cutoff) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (r *historyRepo) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) > persistence.MaxBatchSize {
		return persistence.ErrBatchTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeleteCalls["history"]++
	for _, id := range ids {
		delete(r.history, id)
	}
	return nil
}

type healthRepo DB

func (r *healthRepo) Put(ctx context.Context, record *core.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	r.health = &stored
	return nil
}

func (r *healthRepo) Latest(ctx context.Context) (*core.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.health == nil {
		return nil, persistence.ErrNotFound
	}
	record := *r.health
	return &record, nil
}
