package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/logger"
)

// SerpAPIProvider implements Provider using SerpAPI's Google News results
type SerpAPIProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewSerpAPIProvider creates a new SerpAPI search provider
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:   apiKey,
		endpoint: "https://serpapi.com/search",
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetEndpoint overrides the API URL (used by tests).
func (s *SerpAPIProvider) SetEndpoint(endpoint string) {
	s.endpoint = endpoint
}

// GetName returns the name of this provider
func (s *SerpAPIProvider) GetName() string {
	return "SerpAPI"
}

// recencyFilter maps a day window onto Google's qdr buckets
func recencyFilter(days int) string {
	switch {
	case days <= 1:
		return "qdr:d"
	case days <= 7:
		return "qdr:w"
	case days <= 30:
		return "qdr:m"
	default:
		return "qdr:y"
	}
}

// Search performs a news search using SerpAPI
func (s *SerpAPIProvider) Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("tbm", "nws")
	params.Set("api_key", s.apiKey)
	if config.MaxResults > 0 {
		params.Set("num", strconv.Itoa(config.MaxResults))
	}
	if config.SinceTime > 0 {
		params.Set("tbs", recencyFilter(config.Days()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SerpAPI request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("SerpAPI", resp.StatusCode)
	}

	var apiResponse struct {
		NewsResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"news_results"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse SerpAPI response: %w", err)
	}
	if apiResponse.Error != "" {
		return nil, fmt.Errorf("SerpAPI error: %s", apiResponse.Error)
	}

	var results []core.SearchResult
	for _, item := range apiResponse.NewsResults {
		if config.MaxResults > 0 && len(results) >= config.MaxResults {
			break
		}
		results = append(results, core.SearchResult{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
		})
	}

	logger.Debug("SerpAPI search completed", "query", query, "results_found", len(results))
	return results, nil
}
