package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"newscycle/internal/core"
	"newscycle/internal/retry"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Provider: ProviderOpenAI}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := NewClient(Config{Provider: "polly", APIKey: "k"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Expected ErrUnsupportedProvider, got %v", err)
	}
	if _, err := NewClient(Config{Provider: ProviderMock}); err != nil {
		t.Errorf("Expected mock to need no key, got %v", err)
	}
}

func TestSynthesizeOpenAI(t *testing.T) {
	var got openAIRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Provider: ProviderOpenAI, APIKey: "sk-test", Endpoint: srv.URL, Speed: 1.25})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	audio, err := c.Synthesize(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("Expected mp3-bytes, got %q", audio)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
	if got.Input != "Hello world." || got.Voice != "alloy" || got.Model != "tts-1" || got.Speed != 1.25 || got.ResponseFormat != "mp3" {
		t.Errorf("Unexpected request body %+v", got)
	}
}

func TestSynthesizeElevenLabs(t *testing.T) {
	var path, key string
	var got elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("eleven"))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Provider: ProviderElevenLabs, APIKey: "xi", Endpoint: srv.URL, Voice: "voice-1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "Read me."); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if path != "/voice-1" {
		t.Errorf("Expected voice in path, got %q", path)
	}
	if key != "xi" {
		t.Errorf("Expected xi-api-key header, got %q", key)
	}
	if got.Text != "Read me." || got.ModelID != defaultElevenLabsModel {
		t.Errorf("Unexpected request body %+v", got)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	body := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "slow down", status)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{Provider: ProviderOpenAI, APIKey: "k", Endpoint: srv.URL})
	ctx := context.Background()

	if _, err := c.Synthesize(ctx, "text"); !errors.Is(err, retry.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited on 429, got %v", err)
	}

	status = http.StatusInternalServerError
	if _, err := c.Synthesize(ctx, "text"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status in error, got %v", err)
	}

	status = http.StatusOK
	if _, err := c.Synthesize(ctx, "text"); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("Expected ErrEmptyAudio, got %v", err)
	}

	if _, err := c.Synthesize(ctx, "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "## Big News", "Big News"},
		{"bold and italic", "**Chips** are *fast*", "Chips are fast"},
		{"inline code", "run `go test` now", "run go test now"},
		{"code block", "before ```x := 1``` after", "before after"},
		{"link", "see [the paper](https://arxiv.org/abs/1)", "see the paper"},
		{"bare url", "visit https://example.com/a?b=c today", "visit today"},
		{"symbols", "R&D up 40%", "R and D up 40 percent"},
		{"bullets", "Lead.\n- first point\n- second point", "Lead. first point second point"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrepareText(t *testing.T) {
	got := PrepareText("Chips Get Faster", "New **silicon** ships.", 0)
	if got != "Chips Get Faster. New silicon ships." {
		t.Errorf("Expected headline sentence then body, got %q", got)
	}

	if got := PrepareText("Done?", "Yes.", 0); got != "Done? Yes." {
		t.Errorf("Expected existing punctuation kept, got %q", got)
	}
}

func TestPrepareTextCapsAtMaxChars(t *testing.T) {
	body := strings.Repeat("headline ", 2000)
	got := PrepareText("Title", body, 0)
	if len(got) > DefaultMaxChars {
		t.Errorf("Expected at most %d chars, got %d", DefaultMaxChars, len(got))
	}
	if !strings.HasSuffix(got, "headline") {
		t.Errorf("Expected cut on a word boundary, got suffix %q", got[len(got)-12:])
	}

	multibyte := strings.Repeat("café ", 40)
	got = PrepareText("", multibyte, 51)
	if !utf8.ValidString(got) || len(got) > 51 {
		t.Errorf("Expected valid UTF-8 within 51 bytes, got %q", got)
	}
}

type countingSynth struct {
	calls int
	err   error
}

func (c *countingSynth) Name() string { return "counting" }

func (c *countingSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte(text), nil
}

func TestNarratorCachesAudio(t *testing.T) {
	synth := &countingSynth{}
	n := NewNarrator(synth, 0, time.Hour)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	a := &core.Article{ID: "a-1", Title: "Chips", Body: "Faster chips."}
	first, err := n.Article(context.Background(), a)
	if err != nil {
		t.Fatalf("Article failed: %v", err)
	}
	if string(first) != "Chips. Faster chips." {
		t.Errorf("Expected prepared text sent, got %q", first)
	}
	if _, err := n.Article(context.Background(), a); err != nil {
		t.Fatalf("Article failed: %v", err)
	}
	if synth.calls != 1 {
		t.Errorf("Expected cached second read, got %d calls", synth.calls)
	}

	now = now.Add(2 * time.Hour)
	if _, err := n.Article(context.Background(), a); err != nil {
		t.Fatalf("Article failed: %v", err)
	}
	if synth.calls != 2 {
		t.Errorf("Expected expired entry to resynthesize, got %d calls", synth.calls)
	}
}

func TestNarratorDoesNotCacheFailures(t *testing.T) {
	synth := &countingSynth{err: errors.New("vendor down")}
	n := NewNarrator(synth, 0, time.Hour)
	a := &core.Article{ID: "a-1", Title: "Chips", Body: "Faster chips."}

	for i := 0; i < 2; i++ {
		if _, err := n.Article(context.Background(), a); err == nil {
			t.Fatal("Expected error from failing synth")
		}
	}
	if synth.calls != 2 {
		t.Errorf("Expected every failed read retried, got %d calls", synth.calls)
	}
}
