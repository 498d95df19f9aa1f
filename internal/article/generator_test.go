package article

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"newscycle/internal/core"
	"newscycle/internal/llm"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func response(body, category string) string {
	data, _ := json.Marshal(map[string]string{"articleText": body, "category": category})
	return string(data)
}

var sampleResults = []core.SearchResult{
	{Title: "Chipmaker unveils new accelerator", Description: "A new AI accelerator was announced.", URL: "https://example.com/a"},
}

func TestGenerateInBand(t *testing.T) {
	mock := llm.NewMockBackend("primary", response(words(200), "ai"))
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.WordCount != 200 || draft.Retried || draft.Truncated {
		t.Errorf("Unexpected draft: words=%d retried=%v truncated=%v", draft.WordCount, draft.Retried, draft.Truncated)
	}
	if draft.CategoryLabel != "ai" || draft.Backend != "primary" {
		t.Errorf("Expected label ai from primary, got %q from %q", draft.CategoryLabel, draft.Backend)
	}
	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	if !reqs[0].JSON || reqs[0].System == "" {
		t.Errorf("Expected JSON request with system prompt, got %+v", reqs[0])
	}
}

func TestGenerateCorrectiveRetryAccepted(t *testing.T) {
	mock := llm.NewMockBackend("primary", response(words(120), ""), response(words(200), "science"))
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.WordCount != 200 || !draft.Retried {
		t.Errorf("Expected retry accepted at 200 words, got %d (retried=%v)", draft.WordCount, draft.Retried)
	}
	if draft.CategoryLabel != "science" {
		t.Errorf("Expected label from retry, got %q", draft.CategoryLabel)
	}

	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected exactly 2 requests, got %d", len(reqs))
	}
	if !strings.Contains(reqs[1].User, "ONLY 120 words") {
		t.Errorf("Expected correction prompt to embed the achieved count")
	}
}

func TestGenerateCorrectiveRetryRejected(t *testing.T) {
	mock := llm.NewMockBackend("primary", response(words(120), "ai"), response(words(100), "world"))
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.WordCount != 120 || draft.CategoryLabel != "ai" {
		t.Errorf("Expected first attempt kept, got %d words label %q", draft.WordCount, draft.CategoryLabel)
	}
	if len(mock.Requests()) != 2 {
		t.Errorf("Expected only one corrective retry")
	}
}

func TestGenerateRetryErrorKeepsFirst(t *testing.T) {
	mock := llm.NewMockBackend("primary", response(words(90), ""))
	mock.SetErrors(nil, errors.New("timeout"))
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.WordCount != 90 {
		t.Errorf("Expected 90 words, got %d", draft.WordCount)
	}
}

func TestGenerateMalformedAdvances(t *testing.T) {
	bad := llm.NewMockBackend("bad", "Sure! Here is your article.")
	good := llm.NewMockBackend("good", response(words(180), ""))
	g := NewGenerator([]llm.Backend{bad, good}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.Backend != "good" {
		t.Errorf("Expected fallback backend, got %s", draft.Backend)
	}
	if len(bad.Requests()) != 1 {
		t.Errorf("Expected malformed backend to be called once, got %d", len(bad.Requests()))
	}
}

func TestGenerateAllBackendsFail(t *testing.T) {
	a := llm.NewMockBackend("a")
	a.SetErrors(errors.New("rate limited"))
	b := llm.NewMockBackend("b", `{"category":"ai"}`)
	g := NewGenerator([]llm.Backend{a, b}, DefaultOptions())

	_, err := g.Generate(context.Background(), sampleResults, nil)
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Fatalf("Expected ErrAllBackendsFailed, got %v", err)
	}
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("Expected last error to be the malformed output, got %v", err)
	}
}

func TestGenerateGuards(t *testing.T) {
	if _, err := NewGenerator(nil, Options{}).Generate(context.Background(), sampleResults, nil); !errors.Is(err, ErrNoBackends) {
		t.Errorf("Expected ErrNoBackends, got %v", err)
	}
	g := NewGenerator([]llm.Backend{llm.NewMockBackend("m", "{}")}, Options{})
	if _, err := g.Generate(context.Background(), nil, nil); !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestGenerateTruncatesAtCeiling(t *testing.T) {
	mock := llm.NewMockBackend("primary", response(words(300), ""))
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	draft, err := g.Generate(context.Background(), sampleResults, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !draft.Truncated || !strings.HasSuffix(draft.Body, TruncationMarker) {
		t.Errorf("Expected truncated body with marker")
	}
	if got := core.WordCount(strings.TrimSuffix(draft.Body, TruncationMarker)); got != 260 {
		t.Errorf("Expected 260 words before the marker, got %d", got)
	}
	if draft.WordCount != 260 {
		t.Errorf("Expected reported word count 260 excluding the marker, got %d", draft.WordCount)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{MinWords: 100}.withDefaults()
	if opts.MaxWords != 150 || opts.Ceiling != 185 {
		t.Errorf("Expected derived band 100-150 ceiling 185, got %d-%d ceiling %d", opts.MinWords, opts.MaxWords, opts.Ceiling)
	}
}

func TestParseResponse(t *testing.T) {
	body, label, err := ParseResponse("```json\n{\"articleText\": \" Text here \", \"category\": \"health\"}\n```")
	if err != nil {
		t.Fatalf("Expected fenced JSON to parse, got %v", err)
	}
	if body != "Text here" || label != "health" {
		t.Errorf("Unexpected parse: %q %q", body, label)
	}

	for _, raw := range []string{"not json", `{"category":"ai"}`, `{"articleText":"  "}`} {
		if _, _, err := ParseResponse(raw); !errors.Is(err, ErrMalformedOutput) {
			t.Errorf("Expected ErrMalformedOutput for %q, got %v", raw, err)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	text := "one two\n\nthree four five"
	if got := TruncateWords(text, 3); got != "one two\n\nthree" {
		t.Errorf("Expected paragraph break preserved, got %q", got)
	}
	if got := TruncateWords(text, 10); got != text {
		t.Errorf("Expected text unchanged, got %q", got)
	}
}

func TestBuildArticlePrompt(t *testing.T) {
	opts := DefaultOptions()
	prompt := BuildArticlePrompt(sampleResults, []string{"Old Story About Chips"}, opts, "- ai: artificial intelligence\n")
	for _, want := range []string{"BETWEEN 175 and 225 words", "Old Story About Chips", "Chipmaker unveils new accelerator", "- ai: artificial intelligence", "paragraphs"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	opts.Structure = StructureBullets
	opts.BulletCount = 4
	if prompt := BuildArticlePrompt(sampleResults, nil, opts, ""); !strings.Contains(prompt, "exactly 4 bullet points") {
		t.Errorf("Expected bullet structure constraint")
	}
}

func TestCleanHeadline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Nvidia Unveils Faster Chips For Data Centers"`, "Nvidia Unveils Faster Chips For Data Centers"},
		{"Breaking: OpenAI Launches New Reasoning Model Today", "OpenAI Launches New Reasoning Model Today"},
		{"Tech News Roundup", ""},
		{strings.Repeat("Word ", 20), strings.TrimSpace(strings.Repeat("Word ", 14))},
	}
	for _, tt := range tests {
		if got := CleanHeadline(tt.input); got != tt.expected {
			t.Errorf("CleanHeadline(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestFallbackHeadline(t *testing.T) {
	if got := FallbackHeadline("Robots learned to fold laundry at scale. More follows."); got != "Robots learned to fold laundry at scale" {
		t.Errorf("Expected first sentence, got %q", got)
	}
	if got := FallbackHeadline("Short. Body."); got != DefaultHeadline {
		t.Errorf("Expected default headline, got %q", got)
	}
}

func TestHeadlineAndImagePrompt(t *testing.T) {
	mock := llm.NewMockBackend("m", "Report: Quantum Startup Raises Record Funding Round", `"A quiet laboratory at dusk"`)
	g := NewGenerator([]llm.Backend{mock}, DefaultOptions())

	if got := g.Headline(context.Background(), "body"); got != "Quantum Startup Raises Record Funding Round" {
		t.Errorf("Unexpected headline %q", got)
	}
	if got := g.ImagePrompt(context.Background(), "body"); got != "A quiet laboratory at dusk" {
		t.Errorf("Unexpected image prompt %q", got)
	}
}

func TestHeadlineAndImagePromptFallbacks(t *testing.T) {
	g := NewGenerator([]llm.Backend{llm.NewMockBackend("empty")}, DefaultOptions())
	body := "Engineers shipped a faster compiler this week. Details follow."

	if got := g.Headline(context.Background(), body); got != "Engineers shipped a faster compiler this week" {
		t.Errorf("Expected body fallback headline, got %q", got)
	}
	if got := g.ImagePrompt(context.Background(), body); got != DefaultImagePrompt {
		t.Errorf("Expected default image prompt, got %q", got)
	}
}
