package article

import (
	"context"
	"regexp"
	"strings"

	"newscycle/internal/llm"
	"newscycle/internal/logger"
	"newscycle/internal/retry"
)

const (
	// DefaultHeadline is used when neither the model nor the body yields one.
	DefaultHeadline = "New Developments in AI and Technology"
	// DefaultImagePrompt is used when image prompt generation fails.
	DefaultImagePrompt = "A wide-angle editorial photograph of a modern technology workspace, " +
		"warm golden-hour light streaming through floor-to-ceiling windows, " +
		"sleek minimalist desk with multiple monitors showing data visualizations, " +
		"shallow depth-of-field, professional full-frame photography, " +
		"crisp details, natural color palette, 16:9 cinematic composition"

	minHeadlineWords = 4
	maxHeadlineWords = 14
)

var (
	headlinePrefixPattern = regexp.MustCompile(`(?i)^(Breaking|Update|Report|News|Spotlight|Alert|Headline|Tech|AI|Analysis)[:\s]+`)
	leadingColonPattern   = regexp.MustCompile(`^[:\s]+`)
	sentenceEndPattern    = regexp.MustCompile(`[.!?]`)
)

// Headline asks the backends for a headline and falls back to the body's first
// sentence, then to DefaultHeadline. It never fails.
func (g *Generator) Headline(ctx context.Context, body string) string {
	raw, err := g.completeText(ctx, llm.Request{
		System:      headlineSystemPrompt,
		User:        BuildHeadlinePrompt(body),
		Temperature: 0.4,
		MaxTokens:   50,
	})
	if err == nil {
		if title := CleanHeadline(raw); title != "" {
			logger.Info("Generated headline", "title", title)
			return title
		}
		logger.Warn("Generated headline rejected", "raw", raw)
	} else {
		logger.Warn("Headline generation failed", "error", err.Error())
	}

	title := FallbackHeadline(body)
	logger.Info("Using fallback headline", "title", title)
	return title
}

// CleanHeadline strips quotes and label prefixes, caps the length, and returns
// "" when fewer than four words remain.
func CleanHeadline(raw string) string {
	title := strings.TrimSpace(raw)
	if nl := strings.IndexByte(title, '\n'); nl >= 0 {
		title = title[:nl]
	}
	title = strings.Trim(title, `"'`)
	title = headlinePrefixPattern.ReplaceAllString(title, "")
	title = leadingColonPattern.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)

	words := strings.Fields(title)
	if len(words) < minHeadlineWords {
		return ""
	}
	if len(words) > maxHeadlineWords {
		words = words[:maxHeadlineWords]
	}
	return strings.Join(words, " ")
}

// FallbackHeadline uses the body's first sentence when it is a sensible length.
func FallbackHeadline(body string) string {
	first := strings.TrimSpace(sentenceEndPattern.Split(body, 2)[0])
	if n := len(first); n > 15 && n < 120 {
		return first
	}
	return DefaultHeadline
}

// ImagePrompt asks the backends for a photorealistic scene description,
// falling back to DefaultImagePrompt. It never fails.
func (g *Generator) ImagePrompt(ctx context.Context, body string) string {
	raw, err := g.completeText(ctx, llm.Request{
		System:      imageSystemPrompt,
		User:        BuildImagePrompt(body),
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		logger.Warn("Image prompt generation failed", "error", err.Error())
		return DefaultImagePrompt
	}

	prompt := strings.TrimSpace(raw)
	if len(prompt) >= 2 && strings.HasPrefix(prompt, `"`) && strings.HasSuffix(prompt, `"`) {
		prompt = strings.TrimSpace(prompt[1 : len(prompt)-1])
	}
	if prompt == "" {
		return DefaultImagePrompt
	}
	logger.Info("Generated image prompt", "words", len(strings.Fields(prompt)))
	return prompt
}

func (g *Generator) completeText(ctx context.Context, req llm.Request) (string, error) {
	if len(g.backends) == 0 {
		return "", ErrNoBackends
	}
	text, _, err := retry.FirstSuccess(ctx, g.backends, func(ctx context.Context, b llm.Backend) (string, error) {
		return b.Complete(ctx, req)
	})
	return text, err
}
