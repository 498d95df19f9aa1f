package objectstore

import (
	"context"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/visual"
)

// Publication is where an article's image ended up.
type Publication struct {
	URL      string
	Source   string // core.ImageGenerated or core.ImagePlaceholder
	Provider string
}

// Publisher uploads cascade output, falling back to the placeholder so an
// article always gets an image reference.
type Publisher struct {
	store       Store
	placeholder *visual.Placeholder
}

// NewPublisher creates a publisher. A nil placeholder uses the default one.
func NewPublisher(store Store, placeholder *visual.Placeholder) *Publisher {
	if placeholder == nil {
		placeholder = visual.NewPlaceholder("")
	}
	return &Publisher{store: store, placeholder: placeholder}
}

// Publish uploads img under key. Order: the image itself, then placeholder
// bytes under the same key, then the static placeholder URL. It never fails.
func (p *Publisher) Publish(ctx context.Context, img *visual.Image, key string) Publication {
	if img != nil && !img.Placeholder && len(img.Data) > 0 {
		if url, err := p.upload(ctx, img.Data, key); err == nil {
			return Publication{URL: url, Source: core.ImageGenerated, Provider: img.Provider}
		}
		logger.Warn("Generated image upload failed, falling back to placeholder", "key", key)
	}

	data, provider := p.placeholderBytes(ctx, img)
	if url, err := p.upload(ctx, data, key); err == nil {
		return Publication{URL: url, Source: core.ImagePlaceholder, Provider: provider}
	}

	logger.Warn("Placeholder upload failed, using static placeholder URL", "key", key, "url", p.placeholder.URL)
	static := p.placeholder.URL
	if static == "" {
		static = visual.DefaultPlaceholderURL
	}
	return Publication{URL: static, Source: core.ImagePlaceholder, Provider: "static"}
}

func (p *Publisher) placeholderBytes(ctx context.Context, img *visual.Image) ([]byte, string) {
	if img != nil && img.Placeholder && len(img.Data) > 0 {
		return img.Data, img.Provider
	}
	return p.placeholder.Bytes(ctx)
}

func (p *Publisher) upload(ctx context.Context, data []byte, key string) (string, error) {
	if p.store == nil {
		return "", ErrNoStore
	}
	url, err := p.store.Upload(ctx, data, key)
	metrics.RecordAttempt(metrics.StageUpload, p.store.Name(), err)
	if err != nil {
		logger.Warn("Upload failed", "store", p.store.Name(), "key", key, "bytes", len(data), "error", err.Error())
		return "", err
	}
	logger.Info("Uploaded image", "store", p.store.Name(), "key", key, "bytes", len(data))
	return url, nil
}
