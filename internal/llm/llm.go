// Package llm wraps the text-generation backends behind one small interface.
package llm

import (
	"context"
	"errors"
	"strings"

	"newscycle/internal/retry"
)

var (
	// ErrMissingAPIKey is returned by constructors given no credential.
	ErrMissingAPIKey = errors.New("llm: API key is required")
	// ErrEmptyResponse is returned when a backend answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response from model")
	// ErrRateLimited wraps a 429 from any backend.
	ErrRateLimited = retry.ErrRateLimited
)

// Request is a single completion call.
type Request struct {
	System      string
	User        string
	JSON        bool // Ask the backend for a JSON object response
	Temperature float32
	MaxTokens   int32
}

// Backend produces a completion for a request.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// StripFences removes a surrounding ``` or ```json fence, if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the language tag line.
		if tag := strings.TrimSpace(text[:nl]); !strings.ContainsAny(tag, "{[") {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
