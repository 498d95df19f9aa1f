package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newscycle/internal/config"
	"newscycle/internal/core"
	"newscycle/internal/persistence"
	"newscycle/internal/persistence/memory"
)

var testConfig = config.Server{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second}

type fixedSchedule struct{ next time.Time }

func (f fixedSchedule) Jobs() []string { return []string{"run", "cleanup"} }
func (f fixedSchedule) Next(name string) (time.Time, bool) {
	return f.next, name == "run"
}

type downDB struct{ *memory.DB }

func (downDB) Ping(ctx context.Context) error { return errors.New("connection refused") }

func seed(t *testing.T, db persistence.Database, n int) {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		a := &core.Article{
			ID:        fmt.Sprintf("a-%d", i),
			Title:     fmt.Sprintf("Story %d", i),
			Body:      "body",
			ImageURL:  "https://cdn.example/x.png",
			Category:  core.CategoryAI,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Articles().Create(context.Background(), a); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func get(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s: %v", path, err)
		}
	}
	return resp
}

func TestHealthNoRuns(t *testing.T) {
	srv := httptest.NewServer(New(memory.New(), testConfig).Router())
	defer srv.Close()

	var body HealthResponse
	resp := get(t, srv, "/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if body.Status != "ok" || body.Checks["database"] != "ok" || body.Checks["last_run"] != "none" {
		t.Errorf("Unexpected health body %+v", body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("Expected security headers")
	}
}

func TestHealthWithLastRun(t *testing.T) {
	db := memory.New()
	_ = db.Health().Put(context.Background(), &core.HealthRecord{Status: core.HealthFailed, Error: "search exhausted", Timestamp: time.Now()})

	srv := httptest.NewServer(New(db, testConfig).Router())
	defer srv.Close()

	var body HealthResponse
	get(t, srv, "/health", &body)
	if body.Checks["last_run"] != core.HealthFailed || body.LastRun == nil || body.LastRun.Error != "search exhausted" {
		t.Errorf("Expected last failed run reported, got %+v", body)
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	srv := httptest.NewServer(New(downDB{memory.New()}, testConfig).Router())
	defer srv.Close()

	var body HealthResponse
	resp := get(t, srv, "/health", &body)
	if resp.StatusCode != http.StatusServiceUnavailable || body.Status != "unhealthy" {
		t.Errorf("Expected 503 unhealthy, got %d %+v", resp.StatusCode, body)
	}
}

func TestListArticles(t *testing.T) {
	db := memory.New()
	seed(t, db, 5)
	srv := httptest.NewServer(New(db, testConfig).Router())
	defer srv.Close()

	var body ArticlesResponse
	resp := get(t, srv, "/api/articles?limit=2", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body.Count != 2 || body.Data[0].ID != "a-4" || body.Data[1].ID != "a-3" {
		t.Errorf("Expected two newest articles, got %+v", body.Data)
	}
	if resp.Header.Get("Cache-Control") != "no-cache, no-store, must-revalidate" {
		t.Errorf("Expected no-cache on API responses")
	}

	resp = get(t, srv, "/api/articles?limit=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestListArticlesEmpty(t *testing.T) {
	srv := httptest.NewServer(New(memory.New(), testConfig).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/articles")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"data":[]`) {
		t.Errorf("Expected empty array, got %s", raw)
	}
}

func TestGetArticle(t *testing.T) {
	db := memory.New()
	seed(t, db, 1)
	srv := httptest.NewServer(New(db, testConfig).Router())
	defer srv.Close()

	var a core.Article
	if resp := get(t, srv, "/api/articles/a-0", &a); resp.StatusCode != http.StatusOK || a.Title != "Story 0" {
		t.Errorf("Expected article a-0, got %d %+v", resp.StatusCode, a)
	}
	if resp := get(t, srv, "/api/articles/missing", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	db := memory.New()
	seed(t, db, 3)
	next := time.Date(2030, 1, 1, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(New(db, testConfig, WithSchedule(fixedSchedule{next: next})).Router())
	defer srv.Close()

	var body StatusResponse
	get(t, srv, "/api/status", &body)
	if body.Articles != 3 {
		t.Errorf("Expected 3 articles, got %d", body.Articles)
	}
	if body.Schedule["run"] != "2030-01-01T06:00:00Z" {
		t.Errorf("Expected next run time, got %v", body.Schedule)
	}
	if _, ok := body.Schedule["cleanup"]; ok {
		t.Errorf("Expected jobs without a next time omitted")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(New(memory.New(), testConfig).Router())
	defer srv.Close()

	resp := get(t, srv, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

func TestServesImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "abc.png"), []byte("png-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(memory.New(), testConfig, WithImages(dir, "/images/")).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/images/abc.png")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(raw) != "png-bytes" {
		t.Errorf("Expected image bytes, got %d %q", resp.StatusCode, raw)
	}
	if !strings.Contains(resp.Header.Get("Cache-Control"), "immutable") {
		t.Errorf("Expected immutable caching on images")
	}
}

type stubReader struct {
	audio []byte
	err   error
	calls int
}

func (s *stubReader) Article(ctx context.Context, a *core.Article) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte(a.ID+":"), s.audio...), nil
}

func TestArticleAudio(t *testing.T) {
	db := memory.New()
	seed(t, db, 1)
	reader := &stubReader{audio: []byte("mp3")}
	srv := httptest.NewServer(New(db, testConfig, WithAudio(reader)).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/articles/a-0/audio")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(raw) != "a-0:mp3" {
		t.Errorf("Expected audio for a-0, got %d %q", resp.StatusCode, raw)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Expected public caching, got %q", cc)
	}

	if resp := get(t, srv, "/api/articles/missing/audio", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for missing article, got %d", resp.StatusCode)
	}
	if reader.calls != 1 {
		t.Errorf("Expected reader called once, got %d", reader.calls)
	}
}

func TestArticleAudioSynthesisFailure(t *testing.T) {
	db := memory.New()
	seed(t, db, 1)
	srv := httptest.NewServer(New(db, testConfig, WithAudio(&stubReader{err: errors.New("quota exceeded")})).Router())
	defer srv.Close()

	if resp := get(t, srv, "/api/articles/a-0/audio", nil); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", resp.StatusCode)
	}
}

func TestArticleAudioDisabled(t *testing.T) {
	db := memory.New()
	seed(t, db, 1)
	srv := httptest.NewServer(New(db, testConfig).Router())
	defer srv.Close()

	if resp := get(t, srv, "/api/articles/a-0/audio", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 when audio is not configured, got %d", resp.StatusCode)
	}
}
