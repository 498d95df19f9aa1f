package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newscycle/internal/core"
	"newscycle/internal/logger"
)

// GoogleNewsProvider implements Provider using the keyless Google News RSS search feed
type GoogleNewsProvider struct {
	endpoint  string
	client    *http.Client
	userAgent string
}

// NewGoogleNewsProvider creates a new Google News RSS provider
func NewGoogleNewsProvider() *GoogleNewsProvider {
	return &GoogleNewsProvider{
		endpoint:  "https://news.google.com/rss/search",
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "Mozilla/5.0 (compatible; newscycle/1.0)",
	}
}

// SetEndpoint overrides the feed URL (used by tests).
func (g *GoogleNewsProvider) SetEndpoint(endpoint string) {
	g.endpoint = endpoint
}

// GetName returns the name of this provider
func (g *GoogleNewsProvider) GetName() string {
	return "Google News"
}

func (g *GoogleNewsProvider) feedURL(query string, config Config) string {
	q := query
	if config.SinceTime > 0 {
		q = fmt.Sprintf("%s when:%dd", query, config.Days())
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	return g.endpoint + "?" + params.Encode()
}

// Search fetches the RSS feed for query and maps its items to results
func (g *GoogleNewsProvider) Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.feedURL(query, config), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google News request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google News feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("Google News", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google News feed: %w", err)
	}

	var results []core.SearchResult
	for _, item := range feed.Items {
		if config.MaxResults > 0 && len(results) >= config.MaxResults {
			break
		}
		if item.Link == "" {
			continue
		}
		results = append(results, core.SearchResult{
			Title:       strings.TrimSpace(item.Title),
			Description: feedExcerpt(item),
			URL:         item.Link,
		})
	}

	logger.Debug("Google News search completed", "query", query, "results_found", len(results))
	return results, nil
}

// feedExcerpt returns the item's content or description with markup removed
func feedExcerpt(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	if raw == "" {
		return ""
	}
	return htmlText(raw)
}

// htmlText flattens an HTML fragment to whitespace-normalized text
func htmlText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
