package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newscycle/internal/retry"
)

const GeminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeminiImageModels in priority order.
var DefaultGeminiImageModels = []string{
	"gemini-2.0-flash-exp-image-generation",
	"gemini-2.5-flash-image",
}

// GeminiImageGenerator asks a Gemini image model for inline image data.
type GeminiImageGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	label      string
	httpClient *http.Client
}

// NewGeminiImageGenerator creates a generator for one model. label tells
// credentials apart in logs and metrics.
func NewGeminiImageGenerator(apiKey, model, label string) *GeminiImageGenerator {
	return &GeminiImageGenerator{
		baseURL:    GeminiAPIBase,
		apiKey:     apiKey,
		model:      model,
		label:      label,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// SetBaseURL overrides the API root (used by tests).
func (g *GeminiImageGenerator) SetBaseURL(u string) { g.baseURL = strings.TrimRight(u, "/") }

// Name implements Generator.
func (g *GeminiImageGenerator) Name() string {
	if g.label == "" {
		return "gemini-image/" + g.model
	}
	return "gemini-image/" + g.model + " (" + g.label + ")"
}

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiImageRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type geminiImageResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate implements Generator.
func (g *GeminiImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	var payload geminiImageRequest
	payload.Contents = append(payload.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: []geminiPart{{Text: prompt}}})
	payload.GenerationConfig.ResponseModalities = []string{"IMAGE", "TEXT"}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("gemini image %s: %w", g.model, err)
	}

	var parsed geminiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, retry.Permanent(fmt.Errorf("failed to decode inline image: %w", err))
			}
			return data, nil
		}
		break
	}
	return nil, ErrNoImage
}
