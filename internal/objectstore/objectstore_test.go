package objectstore

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/visual"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 64))
	jpegHeader = []byte("\xff\xd8\xff\xe0" + strings.Repeat("x", 64))
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/images/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	url, err := store.Upload(context.Background(), pngHeader, "article-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "http://localhost:8080/images/article-1.png" {
		t.Errorf("Unexpected URL %s", url)
	}

	// Re-uploading under the same key replaces the earlier file.
	url, err = store.Upload(context.Background(), jpegHeader, "article-1")
	if err != nil {
		t.Fatalf("Second upload failed: %v", err)
	}
	if !strings.HasSuffix(url, "article-1.jpg") {
		t.Errorf("Expected jpg URL, got %s", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "article-1.png")); !os.IsNotExist(err) {
		t.Errorf("Expected old png to be removed")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file, got %d", len(entries))
	}
}

func TestLocalStoreRejectsBadInput(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir(), "")
	if _, err := store.Upload(context.Background(), nil, "k"); !errors.Is(err, ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData, got %v", err)
	}
	for _, key := range []string{"", "../escape", ".hidden", `a\b`} {
		if _, err := store.Upload(context.Background(), pngHeader, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey for %q, got %v", key, err)
		}
	}
}

func TestSign(t *testing.T) {
	params := map[string]string{
		"timestamp": "1700000000",
		"public_id": "abc",
		"overwrite": "true",
		"folder":    "news",
	}
	if got := Sign(params, "secret"); got != "c56a981c0a8ae67c30703ebd4a73a0dc1497e61d" {
		t.Errorf("Unexpected signature %s", got)
	}
}

func TestCloudinaryUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected multipart body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("public_id") != "abc" || r.FormValue("folder") != "news" || r.FormValue("overwrite") != "true" {
			t.Errorf("Unexpected fields: %v", r.MultipartForm.Value)
		}
		if r.FormValue("api_key") != "key" {
			t.Errorf("Expected api_key field")
		}
		if r.FormValue("signature") != "c56a981c0a8ae67c30703ebd4a73a0dc1497e61d" {
			t.Errorf("Unexpected signature %s", r.FormValue("signature"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected file part: %v", err)
		}
		_, _ = w.Write([]byte(`{"secure_url":"https://res.example/news/abc.png","public_id":"news/abc"}`))
	}))
	defer srv.Close()

	store, err := NewCloudinaryStore("demo", "key", "secret", "news")
	if err != nil {
		t.Fatalf("NewCloudinaryStore failed: %v", err)
	}
	store.SetBaseURL(srv.URL)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := store.Upload(context.Background(), pngHeader, "abc")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "https://res.example/news/abc.png" {
		t.Errorf("Unexpected URL %s", url)
	}
}

func TestCloudinaryErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	store, _ := NewCloudinaryStore("demo", "key", "secret", "")
	store.SetBaseURL(srv.URL)
	if _, err := store.Upload(context.Background(), pngHeader, "abc"); err == nil || !strings.Contains(err.Error(), "Invalid Signature") {
		t.Errorf("Expected API error, got %v", err)
	}

	if _, err := NewCloudinaryStore("", "key", "secret", ""); err == nil {
		t.Error("Expected error without cloud name")
	}
}

type scriptedStore struct {
	fail    map[int]bool
	uploads [][]byte
}

func (s *scriptedStore) Name() string { return "scripted" }

func (s *scriptedStore) Upload(ctx context.Context, data []byte, key string) (string, error) {
	s.uploads = append(s.uploads, data)
	if s.fail[len(s.uploads)] {
		return "", errors.New("upload refused")
	}
	return "https://cdn.example/" + key, nil
}

func offlinePlaceholder(t *testing.T) *visual.Placeholder {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return visual.NewPlaceholder(srv.URL)
}

func TestPublishGenerated(t *testing.T) {
	store := &scriptedStore{}
	p := NewPublisher(store, offlinePlaceholder(t))

	pub := p.Publish(context.Background(), &visual.Image{Data: pngHeader, Provider: "flux"}, "id1")
	if pub.Source != core.ImageGenerated || pub.URL != "https://cdn.example/id1" || pub.Provider != "flux" {
		t.Errorf("Unexpected publication %+v", pub)
	}
}

func TestPublishFallsBackToPlaceholderUpload(t *testing.T) {
	store := &scriptedStore{fail: map[int]bool{1: true}}
	p := NewPublisher(store, offlinePlaceholder(t))

	pub := p.Publish(context.Background(), &visual.Image{Data: pngHeader, Provider: "flux"}, "id2")
	if pub.Source != core.ImagePlaceholder || pub.URL != "https://cdn.example/id2" {
		t.Errorf("Unexpected publication %+v", pub)
	}
	if len(store.uploads) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(store.uploads))
	}
	if _, err := png.Decode(bytes.NewReader(store.uploads[1])); err != nil {
		t.Errorf("Expected rendered placeholder PNG on second upload: %v", err)
	}
}

func TestPublishCascadePlaceholder(t *testing.T) {
	store := &scriptedStore{}
	p := NewPublisher(store, offlinePlaceholder(t))

	placeholder := &visual.Image{Data: []byte("remote-placeholder"), Provider: visual.PlaceholderRemote, Placeholder: true}
	pub := p.Publish(context.Background(), placeholder, "id3")
	if pub.Source != core.ImagePlaceholder || pub.Provider != visual.PlaceholderRemote {
		t.Errorf("Unexpected publication %+v", pub)
	}
	if len(store.uploads) != 1 || string(store.uploads[0]) != "remote-placeholder" {
		t.Errorf("Expected the cascade's placeholder bytes to be uploaded once")
	}
}

func TestPublishStaticURLWhenEverythingFails(t *testing.T) {
	store := &scriptedStore{fail: map[int]bool{1: true, 2: true}}
	ph := offlinePlaceholder(t)
	p := NewPublisher(store, ph)

	pub := p.Publish(context.Background(), &visual.Image{Data: pngHeader}, "id4")
	if pub.URL != ph.URL || pub.Source != core.ImagePlaceholder {
		t.Errorf("Expected static placeholder URL, got %+v", pub)
	}

	pub = NewPublisher(nil, &visual.Placeholder{}).Publish(context.Background(), nil, "id5")
	if pub.URL != visual.DefaultPlaceholderURL {
		t.Errorf("Expected default placeholder URL without a store, got %s", pub.URL)
	}
}
