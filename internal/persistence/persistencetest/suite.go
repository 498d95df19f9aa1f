// Package persistencetest holds a behavioral suite every persistence.Database
// backend must pass.
package persistencetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/persistence"
)

// Run exercises db through all repository contracts. db must start empty.
func Run(t *testing.T, db persistence.Database) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("articles", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			err := db.Articles().Create(ctx, &core.Article{
				ID:         fmt.Sprintf("a%d", i),
				Title:      fmt.Sprintf("Title %d", i),
				Body:       "body",
				ImageURL:   "https://img.example/x.png",
				SourceURLs: []string{"https://example.com/" + fmt.Sprint(i)},
				SourceName: "Test",
				Category:   core.CategoryScience,
				CreatedAt:  base.Add(time.Duration(4-i) * time.Minute),
			})
			if err != nil {
				t.Fatalf("Failed to create article %d: %v", i, err)
			}
		}

		err := db.Articles().Create(ctx, &core.Article{ID: "a0", Title: "dup", CreatedAt: base})
		if !errors.Is(err, persistence.ErrDuplicateID) {
			t.Errorf("Expected ErrDuplicateID, got %v", err)
		}

		n, err := db.Articles().Count(ctx)
		if err != nil || n != 5 {
			t.Fatalf("Expected count 5, got %d (%v)", n, err)
		}

		oldest, err := db.Articles().ListOldestFirst(ctx)
		if err != nil {
			t.Fatalf("ListOldestFirst failed: %v", err)
		}
		if len(oldest) != 5 || oldest[0].ID != "a4" || oldest[4].ID != "a0" {
			t.Errorf("Unexpected oldest-first order: %v", ids(oldest))
		}

		recent, err := db.Articles().ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecent failed: %v", err)
		}
		if len(recent) != 2 || recent[0].ID != "a0" || recent[1].ID != "a1" {
			t.Errorf("Unexpected recent order: %v", ids(recent))
		}

		got, err := db.Articles().Get(ctx, "a2")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Category != core.CategoryScience || len(got.SourceURLs) != 1 || !got.CreatedAt.Equal(base.Add(2*time.Minute)) {
			t.Errorf("Unexpected article: %+v", got)
		}

		if _, err := db.Articles().Get(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		if err := db.Articles().DeleteBatch(ctx, []string{"a3", "a4"}); err != nil {
			t.Fatalf("DeleteBatch failed: %v", err)
		}
		if n, _ := db.Articles().Count(ctx); n != 3 {
			t.Errorf("Expected 3 articles after delete, got %d", n)
		}

		tooMany := make([]string, persistence.MaxBatchSize+1)
		if err := db.Articles().DeleteBatch(ctx, tooMany); !errors.Is(err, persistence.ErrBatchTooLarge) {
			t.Errorf("Expected ErrBatchTooLarge, got %v", err)
		}
	})

	t.Run("history", func(t *testing.T) {
		for i, age := range []time.Duration{time.Hour, 48 * time.Hour, 300 * time.Hour} {
			err := db.History().Add(ctx, &core.HistoryEntry{
				ID:         fmt.Sprintf("h%d", i),
				Title:      fmt.Sprintf("History %d", i),
				SourceURLs: []string{"https://example.com/h" + fmt.Sprint(i)},
				Origin:     core.OriginPublish,
				CreatedAt:  base.Add(-age),
			})
			if err != nil {
				t.Fatalf("Failed to add history %d: %v", i, err)
			}
		}

		var streamed int
		err := db.History().Stream(ctx, func(e core.HistoryEntry) error {
			streamed++
			if len(e.SourceURLs) != 1 {
				t.Errorf("Expected 1 url on %s, got %v", e.ID, e.SourceURLs)
			}
			return nil
		})
		if err != nil || streamed != 3 {
			t.Errorf("Expected 3 streamed entries, got %d (%v)", streamed, err)
		}

		recent, err := db.History().ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecent failed: %v", err)
		}
		if len(recent) != 2 || recent[0].ID != "h0" || recent[1].ID != "h1" {
			t.Errorf("Unexpected recent history: %+v", recent)
		}

		old, err := db.History().ListOlderThan(ctx, base.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("ListOlderThan failed: %v", err)
		}
		if len(old) != 2 {
			t.Fatalf("Expected 2 expired ids, got %v", old)
		}

		if err := db.History().DeleteBatch(ctx, old); err != nil {
			t.Fatalf("DeleteBatch failed: %v", err)
		}
		remaining, _ := db.History().ListRecent(ctx, 10)
		if len(remaining) != 1 || remaining[0].ID != "h0" {
			t.Errorf("Expected only h0 to remain, got %+v", remaining)
		}
	})

	t.Run("health", func(t *testing.T) {
		if _, err := db.Health().Latest(ctx); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("Expected ErrNotFound before first write, got %v", err)
		}

		first := &core.HealthRecord{Status: core.HealthFailed, Timestamp: base, Runner: "test", Error: "boom"}
		second := &core.HealthRecord{Status: core.HealthSuccess, Timestamp: base.Add(time.Hour), Runner: "test", WordCount: 190}
		if err := db.Health().Put(ctx, first); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := db.Health().Put(ctx, second); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		latest, err := db.Health().Latest(ctx)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest.Status != core.HealthSuccess || latest.WordCount != 190 || latest.Error != "" {
			t.Errorf("Expected the second record to replace the first, got %+v", latest)
		}
	})

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func ids(articles []core.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}
