package dedup

import (
	"strings"
	"unicode"
)

// DefaultTitleThreshold is the overlap ratio at which two titles are the same story.
const DefaultTitleThreshold = 0.7

// wordSet splits text into a lower-cased set of letter/digit runs.
func wordSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TitleSimilarity returns the number of shared words divided by the size of the
// smaller word set. Empty titles score 0.
func TitleSimilarity(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	small, large := setA, setB
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// IsDuplicateTitle reports whether candidate is at least threshold-similar to any existing title.
// A non-positive threshold uses DefaultTitleThreshold.
func IsDuplicateTitle(candidate string, existing []string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultTitleThreshold
	}
	for _, title := range existing {
		if TitleSimilarity(candidate, title) >= threshold {
			return true
		}
	}
	return false
}
