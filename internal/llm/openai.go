package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Known OpenAI-compatible endpoints.
const (
	CerebrasEndpoint = "https://api.cerebras.ai/v1/chat/completions"
	OpenAIEndpoint   = "https://api.openai.com/v1/chat/completions"
	GroqEndpoint     = "https://api.groq.com/openai/v1/chat/completions"

	DefaultCerebrasModel = "llama-3.3-70b"
)

// OpenAICompatBackend talks to any chat-completions endpoint in the OpenAI dialect.
type OpenAICompatBackend struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAICompatBackend creates a backend for endpoint using model.
func NewOpenAICompatBackend(name, endpoint, apiKey, model string) (*OpenAICompatBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}
	return &OpenAICompatBackend{
		name:       name,
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

// NewCerebrasBackend is a convenience for the Cerebras endpoint.
func NewCerebrasBackend(apiKey, model string) (*OpenAICompatBackend, error) {
	if model == "" {
		model = DefaultCerebrasModel
	}
	return NewOpenAICompatBackend("cerebras", CerebrasEndpoint, apiKey, model)
}

// SetEndpoint overrides the API URL (used by tests).
func (o *OpenAICompatBackend) SetEndpoint(endpoint string) {
	o.endpoint = endpoint
}

// Name implements Backend.
func (o *OpenAICompatBackend) Name() string { return o.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	MaxTokens      int32           `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements Backend.
func (o *OpenAICompatBackend) Complete(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.User})
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", o.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%s returned status %d: %w", o.name, resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d: %s", o.name, resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s API error: %s", o.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
