// Package dedup canonicalizes source URLs and titles so previously published
// stories can be recognized and suppressed.
package dedup

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// bareHostPattern matches a leading "host.tld" or "host.tld:port" segment.
var bareHostPattern = regexp.MustCompile(`(?i)^[a-z0-9-]+(\.[a-z0-9-]+)+(:\d+)?$`)

// trackingParams are stripped from every URL before comparison.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term",
	"ref", "source",
}

// NormalizeURL canonicalizes a source URL for comparison: https scheme,
// lower-cased host without default port, tracking params removed, no fragment
// and no trailing slash. It never fails; unparseable input degrades to a
// lower-cased, trailing-slash-trimmed copy of the raw string.
func NormalizeURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if looksSchemeless(raw) {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return fallback(raw)
	}

	host := strings.ToLower(parsed.Host)
	if h, port, err := net.SplitHostPort(host); err == nil && (port == "443" || port == "80") {
		host = h
	}

	query := parsed.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}

	canonical := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     strings.TrimRight(parsed.Path, "/"),
		RawQuery: query.Encode(),
	}
	return canonical.String()
}

// looksSchemeless reports whether raw is a URL written without its scheme,
// such as "example.com/path".
func looksSchemeless(raw string) bool {
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		return false
	}
	first := raw
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		first = raw[:i]
	}
	return bareHostPattern.MatchString(first)
}

func fallback(raw string) string {
	return strings.TrimRight(strings.ToLower(raw), "/")
}

// NormalizeURLs normalizes and deduplicates urls, preserving first-seen order.
// Empty entries are dropped.
func NormalizeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		normalized := NormalizeURL(u)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
