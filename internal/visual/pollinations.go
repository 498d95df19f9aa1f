package visual

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	PollinationsEndpoint = "https://image.pollinations.ai/prompt"
	pollinationsMaxChars = 500
)

// PollinationsGenerator calls the keyless Pollinations endpoint.
type PollinationsGenerator struct {
	endpoint   string
	width      int
	height     int
	httpClient *http.Client
}

// NewPollinationsGenerator creates a generator for width x height images.
func NewPollinationsGenerator(width, height int) *PollinationsGenerator {
	return &PollinationsGenerator{
		endpoint:   PollinationsEndpoint,
		width:      width,
		height:     height,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetEndpoint overrides the base URL (used by tests).
func (p *PollinationsGenerator) SetEndpoint(endpoint string) { p.endpoint = endpoint }

// Name implements Generator.
func (p *PollinationsGenerator) Name() string { return "pollinations" }

// Generate implements Generator.
func (p *PollinationsGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if len(prompt) > pollinationsMaxChars {
		prompt = prompt[:pollinationsMaxChars]
	}
	u := fmt.Sprintf("%s/%s?width=%d&height=%d&nologo=true", p.endpoint, url.PathEscape(prompt), p.width, p.height)
	return download(ctx, p.httpClient, u, nil)
}
