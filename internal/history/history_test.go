package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/persistence"
	"newscycle/internal/persistence/memory"
)

var fixedNow = time.Date(2025, 9, 20, 6, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestAppendNormalizesURLs(t *testing.T) {
	db := memory.New()
	acc := NewAccessor(db.History()).WithClock(clock)
	ctx := context.Background()

	ok := acc.Append(ctx, "Chip Shortage Eases", []string{
		"http://Example.com/a/?utm_source=x",
		"https://example.com/a",
		"",
	}, core.OriginPublish)
	if !ok {
		t.Fatal("Expected append to succeed")
	}

	entries, _ := db.History().ListRecent(ctx, 10)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].SourceURLs) != 1 || entries[0].SourceURLs[0] != "https://example.com/a" {
		t.Errorf("Expected one normalized url, got %v", entries[0].SourceURLs)
	}
	if !entries[0].CreatedAt.Equal(fixedNow) {
		t.Errorf("Expected timestamp %v, got %v", fixedNow, entries[0].CreatedAt)
	}
}

func TestLoadKnownURLs(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	// Raw entry written by another writer without normalization.
	_ = db.History().Add(ctx, &core.HistoryEntry{ID: "raw", SourceURLs: []string{"HTTP://News.com/x/"}, CreatedAt: fixedNow})

	acc := NewAccessor(db.History()).WithClock(clock)
	acc.Append(ctx, "Second", []string{"https://other.com/y?ref=home"}, core.OriginEviction)

	known, err := acc.LoadKnownURLs(ctx)
	if err != nil {
		t.Fatalf("LoadKnownURLs failed: %v", err)
	}
	for _, u := range []string{"https://news.com/x", "https://other.com/y"} {
		if _, ok := known[u]; !ok {
			t.Errorf("Expected %s in known urls, got %v", u, known)
		}
	}
}

func TestLoadRecentTitles(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	for i, title := range []string{"Oldest", "Middle", "Middle", "Newest"} {
		_ = db.History().Add(ctx, &core.HistoryEntry{
			ID:        fmt.Sprintf("h%d", i),
			Title:     title,
			CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}

	titles, err := NewAccessor(db.History()).LoadRecentTitles(ctx, 3)
	if err != nil {
		t.Fatalf("LoadRecentTitles failed: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Newest" || titles[1] != "Middle" {
		t.Errorf("Expected [Newest Middle], got %v", titles)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ages := map[string]float64{"d1": 1, "d9": 9, "d10.5": 10.5, "d20": 20}
	for id, days := range ages {
		_ = db.History().Add(ctx, &core.HistoryEntry{
			ID:        id,
			Title:     id,
			CreatedAt: fixedNow.Add(-time.Duration(days * float64(24*time.Hour))),
		})
	}

	acc := NewAccessor(db.History()).WithClock(clock)
	deleted, err := acc.PurgeOlderThan(ctx, 10)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	remaining := map[string]bool{}
	_ = db.History().Stream(ctx, func(e core.HistoryEntry) error {
		remaining[e.ID] = true
		return nil
	})
	if !remaining["d1"] || !remaining["d9"] || remaining["d10.5"] || remaining["d20"] {
		t.Errorf("Expected only d1 and d9 to remain, got %v", remaining)
	}
}

func TestPurgeBatches(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	for i := 0; i < 950; i++ {
		_ = db.History().Add(ctx, &core.HistoryEntry{
			ID:        fmt.Sprintf("old-%d", i),
			CreatedAt: fixedNow.Add(-30 * 24 * time.Hour),
		})
	}

	deleted, err := NewAccessor(db.History()).WithClock(clock).PurgeOlderThan(ctx, 10)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if deleted != 950 {
		t.Errorf("Expected 950 deleted, got %d", deleted)
	}
	if calls := db.DeleteCount("history"); calls != 3 {
		t.Errorf("Expected 3 batched deletes, got %d", calls)
	}
}

type failingRepo struct {
	persistence.HistoryRepository
}

func (failingRepo) Add(ctx context.Context, e *core.HistoryEntry) error {
	return errors.New("store unavailable")
}

func TestAppendSwallowsErrors(t *testing.T) {
	acc := NewAccessor(failingRepo{HistoryRepository: memory.New().History()})
	if acc.Append(context.Background(), "t", []string{"https://x.com"}, core.OriginPublish) {
		t.Error("Expected append to report failure")
	}
}
