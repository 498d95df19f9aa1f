// Package search issues news queries against interchangeable providers and
// escalates through widening tiers until fresh results are found.
package search

import (
	"context"
	"time"

	"newscycle/internal/core"
)

// Provider defines the unified interface for search providers.
// Implementations convert their wire format into core.SearchResult.
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]core.SearchResult, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults int           // Maximum number of results to return
	SinceTime  time.Duration // Only return results newer than this duration
	Language   string        // Language preference (e.g., "en", "es")
}

// Days returns the recency window in whole days, at least 1.
func (c Config) Days() int {
	days := int(c.SinceTime.Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeTavily     ProviderType = "tavily"
	ProviderTypeSerpAPI    ProviderType = "serpapi"
	ProviderTypeGoogleNews ProviderType = "googlenews"
	ProviderTypeDuckDuckGo ProviderType = "duckduckgo"
	ProviderTypeMock       ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type.
// Recognized config keys: "api_key", "label", "endpoint".
func (f *ProviderFactory) CreateProvider(providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeTavily:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		p := NewTavilyProvider(apiKey, config["label"])
		if endpoint := config["endpoint"]; endpoint != "" {
			p.SetEndpoint(endpoint)
		}
		return p, nil
	case ProviderTypeSerpAPI:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		p := NewSerpAPIProvider(apiKey)
		if endpoint := config["endpoint"]; endpoint != "" {
			p.SetEndpoint(endpoint)
		}
		return p, nil
	case ProviderTypeGoogleNews:
		p := NewGoogleNewsProvider()
		if endpoint := config["endpoint"]; endpoint != "" {
			p.SetEndpoint(endpoint)
		}
		return p, nil
	case ProviderTypeDuckDuckGo:
		p := NewDuckDuckGoProvider()
		if endpoint := config["endpoint"]; endpoint != "" {
			p.SetEndpoint(endpoint)
		}
		return p, nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeTavily,
		ProviderTypeSerpAPI,
		ProviderTypeGoogleNews,
		ProviderTypeDuckDuckGo,
		ProviderTypeMock,
	}
}
