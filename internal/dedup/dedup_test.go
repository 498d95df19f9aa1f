package dedup

import (
	"testing"

	"newscycle/internal/core"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tracking params and trailing slash", "http://Example.com/a/?utm_source=x&id=5", "https://example.com/a?id=5"},
		{"plain https", "https://example.com/a?id=5", "https://example.com/a?id=5"},
		{"fragment dropped", "https://example.com/story#comments", "https://example.com/story"},
		{"all trackers", "https://news.site/x?utm_medium=a&utm_campaign=b&utm_content=c&utm_term=d&ref=e&source=f", "https://news.site/x"},
		{"root path", "https://EXAMPLE.com/", "https://example.com"},
		{"default port", "http://example.com:80/a", "https://example.com/a"},
		{"custom port kept", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"malformed", "%%Not A URL//", "%%not a url"},
		{"no host", "Some/Path/", "some/path"},
		{"schemeless host", "Example.com/path/", "https://example.com/path"},
		{"schemeless with port and query", "news.site:8443/x?utm_source=a&id=1", "https://news.site:8443/x?id=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeURLEquivalence(t *testing.T) {
	a := NormalizeURL("http://Example.com/a/?utm_source=x&id=5")
	b := NormalizeURL("https://example.com/a?id=5")
	if a != b {
		t.Errorf("Expected equivalent URLs to normalize identically, got %q and %q", a, b)
	}
}

func TestNormalizeURLSchemelessMatchesFull(t *testing.T) {
	a := NormalizeURL("example.com/path/")
	b := NormalizeURL("https://example.com/path")
	if a != b {
		t.Errorf("Expected schemeless URL to match its https form, got %q and %q", a, b)
	}
}

func TestNormalizeURLs(t *testing.T) {
	got := NormalizeURLs([]string{
		"https://a.com/x/",
		"",
		"http://A.com/x?utm_source=feed",
		"https://b.com/y",
	})
	if len(got) != 2 {
		t.Fatalf("Expected 2 unique URLs, got %d: %v", len(got), got)
	}
	if got[0] != "https://a.com/x" || got[1] != "https://b.com/y" {
		t.Errorf("Unexpected order or values: %v", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	a := "OpenAI releases new reasoning model for developers"
	b := "OpenAI Releases New Reasoning Model"
	if sim := TitleSimilarity(a, b); sim < DefaultTitleThreshold {
		t.Errorf("Expected similarity >= %.1f, got %.2f", DefaultTitleThreshold, sim)
	}

	if sim := TitleSimilarity("quantum chips arrive", "bananas ripen slowly"); sim != 0 {
		t.Errorf("Expected 0 for disjoint titles, got %.2f", sim)
	}

	if sim := TitleSimilarity("", "anything"); sim != 0 {
		t.Errorf("Expected 0 for empty title, got %.2f", sim)
	}
}

func TestIsDuplicateTitle(t *testing.T) {
	existing := []string{"Nvidia Unveils Blackwell Successor At GTC", "Rainfall Records Broken In Europe"}
	if !IsDuplicateTitle("Nvidia unveils Blackwell successor", existing, 0) {
		t.Error("Expected near-identical title to be a duplicate")
	}
	if IsDuplicateTitle("Apple ships new Vision headset", existing, 0) {
		t.Error("Expected unrelated title not to be a duplicate")
	}
}

func TestKnownFresh(t *testing.T) {
	known := Known{
		URLs:   URLSet([]string{"https://old.com/story"}),
		Titles: []string{"Google Announces Gemini Update For Workspace"},
	}
	results := []core.SearchResult{
		{Title: "Old story", URL: "http://OLD.com/story/?utm_source=rss"},
		{Title: "Fresh one", URL: "https://new.com/a"},
		{Title: "Fresh one again", URL: "https://new.com/a/"},
		{Title: "Google announces Gemini update for Workspace users", URL: "https://other.com/b"},
		{Title: "Something else entirely", URL: "https://new.com/c"},
	}

	fresh, filtered := known.Fresh(results)
	if len(fresh) != 2 {
		t.Fatalf("Expected 2 fresh results, got %d: %+v", len(fresh), fresh)
	}
	if filtered != 3 {
		t.Errorf("Expected 3 filtered, got %d", filtered)
	}
	if fresh[0].URL != "https://new.com/a" || fresh[1].URL != "https://new.com/c" {
		t.Errorf("Unexpected fresh results: %+v", fresh)
	}
}

func TestKnownFreshEmptyMemory(t *testing.T) {
	results := []core.SearchResult{{Title: "a", URL: "https://x.com/1"}, {Title: "b", URL: "https://x.com/2"}}
	fresh, filtered := Known{}.Fresh(results)
	if len(fresh) != 2 || filtered != 0 {
		t.Errorf("Expected all results fresh, got %d fresh, %d filtered", len(fresh), filtered)
	}
}
