package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"newscycle/internal/logger"
	"newscycle/internal/retry"
)

// DefaultGeminiModels are tried in order until one answers.
var DefaultGeminiModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

// GeminiBackend calls the Gemini API, falling through its model list.
type GeminiBackend struct {
	client *genai.Client
	models []string
	label  string
}

// NewGeminiBackend creates a Gemini backend. An empty model list uses DefaultGeminiModels.
func NewGeminiBackend(ctx context.Context, apiKey string, models []string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if len(models) == 0 {
		models = DefaultGeminiModels
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiBackend{client: client, models: models}, nil
}

// WithLabel distinguishes backends sharing a vendor, e.g. a backup key.
func (g *GeminiBackend) WithLabel(label string) *GeminiBackend {
	g.label = label
	return g
}

// Name implements Backend.
func (g *GeminiBackend) Name() string {
	if g.label != "" {
		return "gemini (" + g.label + ")"
	}
	return "gemini"
}

// Models returns the configured model fallback order.
func (g *GeminiBackend) Models() []string { return g.models }

// Complete implements Backend.
func (g *GeminiBackend) Complete(ctx context.Context, req Request) (string, error) {
	text, _, err := retry.FirstSuccess(ctx, g.models, func(ctx context.Context, name string) (string, error) {
		text, err := g.generate(ctx, name, req)
		if err != nil {
			logger.Warn("Gemini model failed", "model", name, "error", err.Error())
		}
		return text, err
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return text, nil
}

func (g *GeminiBackend) generate(ctx context.Context, modelName string, req Request) (string, error) {
	model := g.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", rateLimited(err))
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client.
// rateLimited tags a quota-exhausted API error with ErrRateLimited.
func rateLimited(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}

func (g *GeminiBackend) Close() error {
	return g.client.Close()
}
