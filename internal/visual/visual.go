// Package visual generates article images through an ordered cascade of
// providers that always ends in a placeholder.
package visual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/retry"
)

var (
	// ErrTooSmall rejects responses below a stage's plausibility threshold.
	ErrTooSmall = errors.New("image response too small")
	// ErrNoImage is returned when a provider answered without image data.
	ErrNoImage = errors.New("no image in response")
)

// Generator turns a prompt into encoded image bytes.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Stage is one provider in the cascade with its own retry policy.
type Stage struct {
	Generator Generator
	Policy    retry.Policy
	MinBytes  int  // Responses of this size or smaller are rejected
	Enhance   bool // Append StyleSuffix to the sanitized prompt
}

// Image is the cascade's result. Data is never empty.
type Image struct {
	Data        []byte
	Provider    string
	Placeholder bool
	Prompt      string // Prompt actually sent to the winning provider
}

// Cascade tries each stage in order and falls back to the placeholder.
type Cascade struct {
	stages      []Stage
	placeholder *Placeholder
}

// NewCascade creates a cascade. A nil placeholder uses NewPlaceholder("").
func NewCascade(stages []Stage, placeholder *Placeholder) *Cascade {
	if placeholder == nil {
		placeholder = NewPlaceholder("")
	}
	return &Cascade{stages: stages, placeholder: placeholder}
}

// Placeholder returns the cascade's terminal image source.
func (c *Cascade) Placeholder() *Placeholder { return c.placeholder }

// Generate runs the cascade. It never fails: when every stage is exhausted
// the placeholder image is returned.
func (c *Cascade) Generate(ctx context.Context, prompt string) *Image {
	clean := SanitizePrompt(prompt)

	for _, stage := range c.stages {
		if ctx.Err() != nil {
			break
		}

		p := clean
		if stage.Enhance {
			p = EnhancePrompt(clean)
		}

		data, err := c.runStage(ctx, stage, p)
		if err != nil {
			logger.Warn("Image provider exhausted", "provider", stage.Generator.Name(), "error", err.Error())
			continue
		}

		logger.Info("Image generated", "provider", stage.Generator.Name(), "bytes", len(data))
		return &Image{Data: data, Provider: stage.Generator.Name(), Prompt: p}
	}

	logger.Warn("All image providers failed, using placeholder")
	data, source := c.placeholder.Bytes(ctx)
	return &Image{Data: data, Provider: source, Placeholder: true}
}

func (c *Cascade) runStage(ctx context.Context, stage Stage, prompt string) ([]byte, error) {
	name := stage.Generator.Name()
	var out []byte

	err := retry.Do(ctx, stage.Policy, func(ctx context.Context, attempt int) error {
		start := time.Now()
		data, err := stage.Generator.Generate(ctx, prompt)
		if err == nil && len(data) <= stage.MinBytes {
			err = fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
		}
		metrics.RecordAttempt(metrics.StageImage, name, err)
		if err != nil {
			logger.Warn("Image attempt failed", "provider", name, "attempt", attempt, "error", err.Error())
			return err
		}
		logger.Debug("Image attempt succeeded", "provider", name, "attempt", attempt, "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())
		out = data
		return nil
	})
	return out, err
}
