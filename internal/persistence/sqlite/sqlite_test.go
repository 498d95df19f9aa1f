package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/persistence/persistencetest"
)

func TestSQLiteBackend(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "data", "newscycle.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer db.Close()

	persistencetest.Run(t, db)
}

func TestSQLiteInMemory(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory SQLite backend: %v", err)
	}
	defer db.Close()

	persistencetest.Run(t, db)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newscycle.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	err = db.Articles().Create(ctx, &core.Article{
		ID:        "persisted",
		Title:     "Persisted",
		ImageURL:  "https://img.example/p.png",
		Category:  core.CategoryTech,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Articles().Get(ctx, "persisted")
	if err != nil {
		t.Fatalf("Expected article after reopen, got %v", err)
	}
	if got.SourceURLs == nil || len(got.SourceURLs) != 0 {
		t.Errorf("Expected empty (non-nil) source urls, got %#v", got.SourceURLs)
	}
}
