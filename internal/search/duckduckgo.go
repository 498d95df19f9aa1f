package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newscycle/internal/core"
	"newscycle/internal/logger"
)

// DuckDuckGoProvider implements the Provider interface by scraping DuckDuckGo's HTML endpoint
type DuckDuckGoProvider struct {
	endpoint  string
	client    *http.Client
	userAgent string
}

// NewDuckDuckGoProvider creates a new DuckDuckGo search provider
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		endpoint:  "https://html.duckduckgo.com/html/",
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
}

// SetEndpoint overrides the search URL (used by tests).
func (d *DuckDuckGoProvider) SetEndpoint(endpoint string) {
	d.endpoint = endpoint
}

// GetName returns the name of this provider
func (d *DuckDuckGoProvider) GetName() string {
	return "DuckDuckGo"
}

// Search performs a search using DuckDuckGo and returns results
func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.buildSearchURL(query, config), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("DuckDuckGo", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DuckDuckGo response: %w", err)
	}

	if doc.Find("form#challenge-form, .anomaly-modal").Length() > 0 {
		return nil, fmt.Errorf("DuckDuckGo: %w: blocked by CAPTCHA", ErrProviderUnavailable)
	}

	results := parseDuckDuckGoResults(doc, config.MaxResults)
	logger.Debug("DuckDuckGo search completed", "query", query, "results_found", len(results))
	return results, nil
}

// buildSearchURL constructs the DuckDuckGo search URL with parameters
func (d *DuckDuckGoProvider) buildSearchURL(query string, config Config) string {
	params := url.Values{}
	if config.SinceTime > 0 {
		days := config.Days()
		switch {
		case days <= 1:
			params.Set("df", "d")
		case days <= 7:
			params.Set("df", "w")
		case days <= 30:
			params.Set("df", "m")
		default:
			params.Set("df", "y")
		}
	}
	params.Set("q", query)
	params.Set("kl", "us-en")
	return d.endpoint + "?" + params.Encode()
}

// parseDuckDuckGoResults extracts results from the HTML result list
func parseDuckDuckGoResults(doc *goquery.Document, maxResults int) []core.SearchResult {
	var results []core.SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		finalURL := extractFinalURL(href)
		if finalURL == "" {
			return true
		}

		results = append(results, core.SearchResult{
			Title:       strings.Join(strings.Fields(link.Text()), " "),
			Description: strings.Join(strings.Fields(s.Find(".result__snippet").First().Text()), " "),
			URL:         finalURL,
		})
		return true
	})
	return results
}

// extractFinalURL extracts the actual URL from DuckDuckGo's redirect URL
func extractFinalURL(redirectURL string) string {
	// DuckDuckGo uses URLs like: //duckduckgo.com/l/?uddg=https%3A//example.com/...&rut=...
	if strings.Contains(redirectURL, "/l/?") {
		parsed, err := url.Parse(redirectURL)
		if err != nil {
			return ""
		}
		// Query() already unescapes the value.
		return parsed.Query().Get("uddg")
	}

	if strings.HasPrefix(redirectURL, "http") {
		return redirectURL
	}
	return ""
}
