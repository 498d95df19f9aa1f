package core

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"ai", CategoryAI, true},
		{"  Business ", CategoryBusiness, true},
		{"\"science\"", CategoryScience, true},
		{"CLIMATE", CategoryClimate, true},
		{"sports", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCategory(%q): expected (%q, %v), got (%q, %v)", tt.input, tt.want, tt.ok, got, ok)
		}
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Categories()
	if len(cats) != 7 {
		t.Fatalf("Expected 7 categories, got %d", len(cats))
	}
	if cats[0] != CategoryAI {
		t.Errorf("Expected first category to be ai, got %s", cats[0])
	}
	if cats[len(cats)-1] != DefaultCategory {
		t.Errorf("Expected catch-all default to be declared last, got %s", cats[len(cats)-1])
	}
	if !DefaultCategory.Valid() {
		t.Error("Expected default category to be valid")
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\n\nthree\tfour "); got != 4 {
		t.Errorf("Expected 4 words, got %d", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("Expected 0 words, got %d", got)
	}
}

func TestSearchResultTextLength(t *testing.T) {
	r := SearchResult{Title: "abc", Description: "defg"}
	if got := r.TextLength(); got != 8 {
		t.Errorf("Expected 8, got %d", got)
	}
}
