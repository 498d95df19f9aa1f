package rotation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/history"
	"newscycle/internal/persistence"
	"newscycle/internal/persistence/memory"
)

var base = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func article(i int) *core.Article {
	return &core.Article{
		ID:         fmt.Sprintf("a%03d", i),
		Title:      fmt.Sprintf("Story number %d", i),
		Body:       "body",
		ImageURL:   "https://img.example/" + fmt.Sprint(i),
		SourceURLs: []string{fmt.Sprintf("https://src.example/%d", i)},
		Category:   core.CategoryTech,
		CreatedAt:  base.Add(time.Duration(i) * time.Hour),
	}
}

func seed(t *testing.T, db *memory.DB, n int) {
	t.Helper()
	w := NewWriter(db.Articles())
	for i := 0; i < n; i++ {
		if err := w.Write(context.Background(), article(i)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
}

func TestEvictExcess(t *testing.T) {
	db := memory.New()
	seed(t, db, 45)
	ctx := context.Background()

	evictor := NewEvictor(db.Articles(), history.NewAccessor(db.History()))
	deleted, err := evictor.EvictExcess(ctx, 30)
	if err != nil {
		t.Fatalf("EvictExcess failed: %v", err)
	}
	if deleted != 15 {
		t.Errorf("Expected 15 deleted, got %d", deleted)
	}

	remaining, _ := db.Articles().ListOldestFirst(ctx)
	if len(remaining) != 30 {
		t.Fatalf("Expected 30 remaining, got %d", len(remaining))
	}
	if remaining[0].ID != "a015" || remaining[29].ID != "a044" {
		t.Errorf("Expected the newest 30 kept, got %s..%s", remaining[0].ID, remaining[29].ID)
	}

	entries, _ := db.History().ListRecent(ctx, 100)
	if len(entries) != 15 {
		t.Fatalf("Expected 15 archived entries, got %d", len(entries))
	}
	titles := map[string]bool{}
	for _, e := range entries {
		if e.Origin != core.OriginEviction {
			t.Errorf("Expected eviction origin, got %s", e.Origin)
		}
		titles[e.Title] = true
	}
	if !titles["Story number 0"] || !titles["Story number 14"] || titles["Story number 15"] {
		t.Errorf("Unexpected archived titles: %v", titles)
	}
}

func TestEvictExcessNoop(t *testing.T) {
	db := memory.New()
	seed(t, db, 10)

	deleted, err := NewEvictor(db.Articles(), nil).EvictExcess(context.Background(), 10)
	if err != nil || deleted != 0 {
		t.Errorf("Expected no-op, got %d (%v)", deleted, err)
	}
	if db.DeleteCount("articles") != 0 {
		t.Errorf("Expected no delete calls")
	}
}

func TestEvictExcessBatches(t *testing.T) {
	db := memory.New()
	seed(t, db, 30)

	deleted, err := NewEvictor(db.Articles(), nil).WithBatchSize(10).EvictExcess(context.Background(), 5)
	if err != nil {
		t.Fatalf("EvictExcess failed: %v", err)
	}
	if deleted != 25 {
		t.Errorf("Expected 25 deleted, got %d", deleted)
	}
	if calls := db.DeleteCount("articles"); calls != 3 {
		t.Errorf("Expected 3 batched deletes, got %d", calls)
	}
}

type failingDeletes struct {
	persistence.ArticleRepository
	failOn int
	calls  int
}

func (f *failingDeletes) DeleteBatch(ctx context.Context, ids []string) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("commit failed")
	}
	return f.ArticleRepository.DeleteBatch(ctx, ids)
}

type recordingArchive struct {
	titles []string
}

func (r *recordingArchive) Append(ctx context.Context, title string, urls []string, origin string) bool {
	r.titles = append(r.titles, title)
	return true
}

func TestEvictExcessPartialFailure(t *testing.T) {
	db := memory.New()
	seed(t, db, 25)
	repo := &failingDeletes{ArticleRepository: db.Articles(), failOn: 2}
	archive := &recordingArchive{}

	deleted, err := NewEvictor(repo, archive).WithBatchSize(10).EvictExcess(context.Background(), 0)
	if err == nil {
		t.Fatal("Expected error from second batch")
	}
	if deleted != 10 {
		t.Errorf("Expected 10 deleted before failure, got %d", deleted)
	}
	// The failed batch was archived before the delete was attempted.
	if len(archive.titles) != 20 {
		t.Errorf("Expected 20 archived, got %d", len(archive.titles))
	}
}

func TestWriteValidates(t *testing.T) {
	w := NewWriter(memory.New().Articles())
	ctx := context.Background()

	cases := map[string]func(a *core.Article){
		"id":       func(a *core.Article) { a.ID = "" },
		"title":    func(a *core.Article) { a.Title = "" },
		"image":    func(a *core.Article) { a.ImageURL = "" },
		"category": func(a *core.Article) { a.Category = "sports" },
		"created":  func(a *core.Article) { a.CreatedAt = time.Time{} },
	}
	for name, mutate := range cases {
		a := article(1)
		mutate(a)
		if err := w.Write(ctx, a); !errors.Is(err, ErrInvalidArticle) {
			t.Errorf("%s: expected ErrInvalidArticle, got %v", name, err)
		}
	}
	if err := w.Write(ctx, nil); !errors.Is(err, ErrInvalidArticle) {
		t.Errorf("Expected ErrInvalidArticle for nil, got %v", err)
	}
}

func TestWriteDuplicate(t *testing.T) {
	w := NewWriter(memory.New().Articles())
	ctx := context.Background()
	_ = w.Write(ctx, article(1))
	if err := w.Write(ctx, article(1)); !errors.Is(err, persistence.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}
