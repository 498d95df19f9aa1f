package dedup

import "newscycle/internal/core"

// Known is the dedup memory a result set is checked against.
type Known struct {
	URLs   map[string]struct{} // Normalized URLs from history
	Titles []string            // Recently published titles, optional
	// TitleThreshold applies to Titles; zero means DefaultTitleThreshold.
	TitleThreshold float64
}

// HasURL reports whether the normalized form of rawURL is already known.
func (k Known) HasURL(rawURL string) bool {
	if len(k.URLs) == 0 {
		return false
	}
	_, ok := k.URLs[NormalizeURL(rawURL)]
	return ok
}

// Fresh returns the results that are not in history, dropping repeated URLs
// within the batch too. The second value counts removed results.
func (k Known) Fresh(results []core.SearchResult) ([]core.SearchResult, int) {
	fresh := make([]core.SearchResult, 0, len(results))
	seen := make(map[string]bool, len(results))

	for _, r := range results {
		normalized := NormalizeURL(r.URL)
		if r.URL != "" && seen[normalized] {
			continue
		}
		seen[normalized] = true

		if r.URL != "" && k.HasURL(r.URL) {
			continue
		}
		if len(k.Titles) > 0 && IsDuplicateTitle(r.Title, k.Titles, k.TitleThreshold) {
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh, len(results) - len(fresh)
}

// URLSet builds a normalized lookup set from raw URLs.
func URLSet(urls []string) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range NormalizeURLs(urls) {
		set[u] = struct{}{}
	}
	return set
}
