package categorization

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"newscycle/internal/core"
)

// BodyPrefixLen bounds how much of the article body is scored.
const BodyPrefixLen = 500

// Score counts case-insensitive keyword occurrences per category.
type Score struct {
	Category core.Category
	Hits     int
}

// scoringText joins query, the title twice and a bounded body prefix, lower-cased.
func scoringText(query, title, body string) string {
	return strings.ToLower(strings.Join([]string{query, title, title, prefix(body, BodyPrefixLen)}, " "))
}

// prefix returns at most n bytes of s without splitting a rune.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Scores returns one entry per rule in table order.
func (t Table) Scores(query, title, body string) []Score {
	text := scoringText(query, title, body)
	scores := make([]Score, len(t))
	for i, rule := range t {
		scores[i].Category = rule.Category
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			scores[i].Hits += strings.Count(text, strings.ToLower(kw))
		}
	}
	return scores
}

// Classify returns the highest-scoring category. Ties go to the rule declared
// first; when nothing scores, core.DefaultCategory is returned.
func (t Table) Classify(query, title, body string) core.Category {
	best := core.DefaultCategory
	bestHits := 0
	for _, s := range t.Scores(query, title, body) {
		if s.Hits > bestHits {
			best, bestHits = s.Category, s.Hits
		}
	}
	return best
}

// Classify scores against DefaultTable.
func Classify(query, title, body string) core.Category {
	return DefaultTable().Classify(query, title, body)
}

// Resolve applies the text generator's label over the keyword result when the
// label is a member of the closed set.
func Resolve(scored core.Category, llmLabel string) core.Category {
	if c, ok := core.ParseCategory(llmLabel); ok {
		return c
	}
	return scored
}

// PromptList renders the categories for inclusion in a generation prompt.
func (t Table) PromptList() string {
	var b strings.Builder
	for _, rule := range t {
		fmt.Fprintf(&b, "- %s: %s\n", rule.Category, rule.Description)
	}
	return b.String()
}
