package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/logger"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider implements Provider using the Tavily news search API.
// Several instances with different keys act as ordered credentials.
type TavilyProvider struct {
	apiKey   string
	label    string
	endpoint string
	client   *http.Client
}

// NewTavilyProvider creates a Tavily provider. label distinguishes credentials in logs.
func NewTavilyProvider(apiKey, label string) *TavilyProvider {
	if label == "" {
		label = "primary"
	}
	return &TavilyProvider{
		apiKey:   apiKey,
		label:    label,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetEndpoint overrides the API URL (used by tests).
func (t *TavilyProvider) SetEndpoint(endpoint string) {
	t.endpoint = endpoint
}

// GetName returns the name of this provider
func (t *TavilyProvider) GetName() string {
	return "Tavily (" + t.label + ")"
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	Topic         string `json:"topic"`
	Days          int    `json:"days"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search performs a news search restricted to config.Days()
func (t *TavilyProvider) Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error) {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		Topic:       "news",
		Days:        config.Days(),
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Tavily request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("Tavily", resp.StatusCode)
	}

	var apiResponse tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse Tavily response: %w", err)
	}

	results := make([]core.SearchResult, 0, len(apiResponse.Results))
	for _, item := range apiResponse.Results {
		results = append(results, core.SearchResult{
			Title:       item.Title,
			Description: item.Content,
			URL:         item.URL,
		})
	}

	logger.Debug("Tavily search completed", "credential", t.label, "query", query, "results_found", len(results))
	return results, nil
}
