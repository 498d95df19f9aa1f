package article

import "errors"

var (
	// ErrAllBackendsFailed is returned when no backend produced a usable article.
	ErrAllBackendsFailed = errors.New("all text generation backends failed")
	// ErrMalformedOutput marks a response that is not the expected JSON object.
	ErrMalformedOutput = errors.New("malformed structured output")
	// ErrNoResults is returned when Generate is called without source material.
	ErrNoResults = errors.New("no search results to write from")
	// ErrNoBackends is returned when the generator has nothing to call.
	ErrNoBackends = errors.New("no text generation backends configured")
)
