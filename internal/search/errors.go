package search

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when a required API key is not provided
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrUnsupportedProvider is returned when an unsupported provider type is specified
	ErrUnsupportedProvider = errors.New("unsupported search provider")

	// ErrNoResults is returned when a search returns no results
	ErrNoResults = errors.New("no search results found")

	// ErrRateLimited is returned when rate limits are exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrProviderUnavailable is returned when a provider service is unavailable
	ErrProviderUnavailable = errors.New("search provider is currently unavailable")

	// ErrNoFreshResults is returned when every tier is exhausted without a fresh result
	ErrNoFreshResults = errors.New("no fresh search results found after all fallbacks")

	// ErrNoProviders is returned when the orchestrator has nothing to query
	ErrNoProviders = errors.New("no search providers configured")
)

// statusError maps a non-2xx HTTP status onto the package's sentinel errors.
func statusError(provider string, code int) error {
	switch {
	case code == 429:
		return fmt.Errorf("%s: %w (status %d)", provider, ErrRateLimited, code)
	case code >= 500:
		return fmt.Errorf("%s: %w (status %d)", provider, ErrProviderUnavailable, code)
	default:
		return fmt.Errorf("%s request failed with status: %d", provider, code)
	}
}
