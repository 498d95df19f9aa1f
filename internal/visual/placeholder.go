package visual

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"time"

	"newscycle/internal/logger"
)

const (
	DefaultPlaceholderURL = "https://placehold.co/1024x576/1a1a2e/e2e8f0?text=AI+News&font=roboto"

	PlaceholderRemote   = "placeholder-remote"
	PlaceholderRendered = "placeholder-rendered"
)

var (
	placeholderBackground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	placeholderAccent     = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
)

// Placeholder is the cascade's always-succeeds image source.
type Placeholder struct {
	URL        string
	MinBytes   int
	Width      int
	Height     int
	httpClient *http.Client
}

// NewPlaceholder creates a placeholder backed by url, or DefaultPlaceholderURL.
func NewPlaceholder(url string) *Placeholder {
	if url == "" {
		url = DefaultPlaceholderURL
	}
	return &Placeholder{
		URL:        url,
		MinBytes:   500,
		Width:      1024,
		Height:     576,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Bytes fetches the placeholder URL, falling back to a locally rendered PNG.
// The returned data is never empty.
func (p *Placeholder) Bytes(ctx context.Context) ([]byte, string) {
	if p.URL != "" && ctx.Err() == nil {
		data, err := download(ctx, p.httpClient, p.URL, nil)
		if err == nil && len(data) > p.MinBytes {
			return data, PlaceholderRemote
		}
		if err != nil {
			logger.Warn("Placeholder fetch failed", "url", p.URL, "error", err.Error())
		} else {
			logger.Warn("Placeholder fetch too small", "url", p.URL, "bytes", len(data))
		}
	}
	return p.Render(), PlaceholderRendered
}

// Render draws a deterministic PNG: dark background with a centered accent bar.
func (p *Placeholder) Render() []byte {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = 1024, 576
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBackground}, image.Point{}, draw.Src)

	bar := image.Rect(w/4, h/2-h/40, w*3/4, h/2+h/40)
	draw.Draw(img, bar, &image.Uniform{C: placeholderAccent}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA cannot fail in practice.
		logger.Error("Failed to encode placeholder", err)
	}
	return buf.Bytes()
}
