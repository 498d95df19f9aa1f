package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIImageGenerator calls the OpenAI images API.
type OpenAIImageGenerator struct {
	apiKey     string
	model      string
	size       string
	httpClient *http.Client
	baseURL    string
}

// NewOpenAIImageGenerator creates a generator for width x height, mapped to
// the nearest supported size.
func NewOpenAIImageGenerator(apiKey, model string, width, height int) *OpenAIImageGenerator {
	if model == "" {
		model = "gpt-image-1"
	}
	return &OpenAIImageGenerator{
		apiKey:     apiKey,
		model:      model,
		size:       ImageSize(width, height),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    "https://api.openai.com/v1",
	}
}

// SetBaseURL overrides the API root (used by tests).
func (c *OpenAIImageGenerator) SetBaseURL(u string) { c.baseURL = u }

// Name implements Generator.
func (c *OpenAIImageGenerator) Name() string { return "openai-image" }

// ImageRequest is an images/generations request.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// ImageResponse is an images/generations response.
type ImageResponse struct {
	Created int64         `json:"created"`
	Data    []ImageResult `json:"data"`
}

// ImageResult is a single generated image.
type ImageResult struct {
	B64JSON       string `json:"b64_json"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Generate implements Generator.
func (c *OpenAIImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	reqBody, err := json.Marshal(ImageRequest{Model: c.model, Prompt: prompt, N: 1, Size: c.size})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("openai images: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var imgResp ImageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(imgResp.Data) == 0 {
		return nil, ErrNoImage
	}

	result := imgResp.Data[0]
	if result.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(result.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 image: %w", err)
		}
		return data, nil
	}
	if result.URL != "" {
		return download(ctx, c.httpClient, result.URL, nil)
	}
	return nil, ErrNoImage
}

// ImageSize maps requested dimensions to a size the images API accepts.
func ImageSize(width, height int) string {
	sizeStr := fmt.Sprintf("%dx%d", width, height)
	switch sizeStr {
	case "1024x1024", "1024x1536", "1536x1024":
		return sizeStr
	}

	if width <= 0 || height <= 0 || width == height {
		return "1024x1024"
	}
	if width > height {
		return "1536x1024"
	}
	return "1024x1536"
}
