// Package article turns search results into an article body, a headline and
// an image prompt using the configured text backends.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"newscycle/internal/categorization"
	"newscycle/internal/core"
	"newscycle/internal/llm"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/retry"
)

// TruncationMarker is appended to bodies cut at the ceiling.
const TruncationMarker = " […]"

// Options configures the word band and body shape.
type Options struct {
	MinWords    int
	MaxWords    int
	Ceiling     int // Bodies longer than this are truncated
	Structure   Structure
	BulletCount int
	Temperature float32
	MaxTokens   int32
}

// DefaultOptions returns the 175-225 word paragraph band.
func DefaultOptions() Options {
	return Options{
		MinWords:    175,
		MaxWords:    225,
		Ceiling:     260,
		Structure:   StructureParagraphs,
		BulletCount: 5,
		Temperature: 0.4,
		MaxTokens:   4096,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinWords <= 0 {
		o.MinWords = d.MinWords
	}
	if o.MaxWords < o.MinWords {
		o.MaxWords = o.MinWords + (d.MaxWords - d.MinWords)
	}
	if o.Ceiling < o.MaxWords {
		o.Ceiling = o.MaxWords + (d.Ceiling - d.MaxWords)
	}
	if o.Structure == "" {
		o.Structure = d.Structure
	}
	if o.BulletCount <= 0 {
		o.BulletCount = d.BulletCount
	}
	if o.Temperature <= 0 {
		o.Temperature = d.Temperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	return o
}

// Draft is the accepted body of one generation.
type Draft struct {
	Body          string
	CategoryLabel string // Raw label emitted by the model, may be empty or invalid
	Backend       string
	WordCount     int
	Retried       bool // A corrective retry was issued
	Truncated     bool
}

// Generator calls backends in priority order.
type Generator struct {
	backends []llm.Backend
	opts     Options
	table    categorization.Table
}

// NewGenerator creates a generator over backends, tried in the given order.
func NewGenerator(backends []llm.Backend, opts Options) *Generator {
	return &Generator{
		backends: backends,
		opts:     opts.withDefaults(),
		table:    categorization.DefaultTable(),
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// Generate writes one article body from results, avoiding historyTitles.
// Transport failures and malformed output advance to the next backend; a short
// first response gets exactly one corrective retry on the same backend.
func (g *Generator) Generate(ctx context.Context, results []core.SearchResult, historyTitles []string) (*Draft, error) {
	if len(g.backends) == 0 {
		return nil, ErrNoBackends
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	prompt := BuildArticlePrompt(results, historyTitles, g.opts, g.table.PromptList())

	draft, _, err := retry.FirstSuccess(ctx, g.backends, func(ctx context.Context, b llm.Backend) (*Draft, error) {
		draft, err := g.generateWith(ctx, b, prompt)
		metrics.RecordAttempt(metrics.StageText, b.Name(), err)
		if err != nil {
			logger.Warn("Text backend failed", "backend", b.Name(), "error", err.Error())
		}
		return draft, err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAllBackendsFailed, err)
	}

	if draft.WordCount > g.opts.Ceiling {
		logger.Info("Article truncated at ceiling", "words", draft.WordCount, "ceiling", g.opts.Ceiling)
		body := TruncateWords(draft.Body, g.opts.Ceiling)
		// The marker is not a word.
		draft.WordCount = core.WordCount(body)
		draft.Body = body + TruncationMarker
		draft.Truncated = true
	}

	return draft, nil
}

func (g *Generator) generateWith(ctx context.Context, b llm.Backend, prompt string) (*Draft, error) {
	body, label, err := g.complete(ctx, b, prompt)
	if err != nil {
		return nil, err
	}

	draft := &Draft{Body: body, CategoryLabel: label, Backend: b.Name(), WordCount: core.WordCount(body)}
	logger.Info("First attempt", "backend", b.Name(), "words", draft.WordCount)

	if draft.WordCount >= g.opts.MinWords {
		return draft, nil
	}

	draft.Retried = true
	logger.Warn("Article too short, retrying with correction", "backend", b.Name(), "words", draft.WordCount, "min", g.opts.MinWords)

	retryBody, retryLabel, err := g.complete(ctx, b, BuildCorrectionPrompt(prompt, draft.WordCount, g.opts))
	if err != nil {
		logger.Warn("Corrective retry failed, keeping first attempt", "backend", b.Name(), "error", err.Error())
		return draft, nil
	}

	retryWords := core.WordCount(retryBody)
	if retryWords <= draft.WordCount {
		logger.Info("Corrective retry not longer, keeping first attempt", "words", draft.WordCount, "retry_words", retryWords)
		return draft, nil
	}

	logger.Info("Corrective retry accepted", "backend", b.Name(), "words", retryWords)
	draft.Body = retryBody
	draft.WordCount = retryWords
	if retryLabel != "" {
		draft.CategoryLabel = retryLabel
	}
	return draft, nil
}

func (g *Generator) complete(ctx context.Context, b llm.Backend, prompt string) (string, string, error) {
	raw, err := b.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        prompt,
		JSON:        true,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", "", err
	}
	return ParseResponse(raw)
}

type articleResponse struct {
	ArticleText *string `json:"articleText"`
	Category    string  `json:"category"`
}

// ParseResponse extracts the body and category label from a JSON response,
// tolerating a surrounding code fence. Anything else is ErrMalformedOutput.
func ParseResponse(raw string) (string, string, error) {
	var resp articleResponse
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &resp); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if resp.ArticleText == nil {
		return "", "", fmt.Errorf("%w: missing articleText", ErrMalformedOutput)
	}
	body := strings.TrimSpace(*resp.ArticleText)
	if body == "" {
		return "", "", fmt.Errorf("%w: empty articleText", ErrMalformedOutput)
	}
	return body, strings.TrimSpace(resp.Category), nil
}

// TruncateWords keeps the first n words of text, preserving the original spacing
// between them.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord && words == n {
				return text[:i]
			}
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			words++
		}
	}
	return text
}
