package handlers

import (
	"context"
	"errors"
	"fmt"

	"newscycle/internal/article"
	"newscycle/internal/config"
	"newscycle/internal/health"
	"newscycle/internal/history"
	"newscycle/internal/llm"
	"newscycle/internal/logger"
	"newscycle/internal/objectstore"
	"newscycle/internal/persistence"
	"newscycle/internal/persistence/memory"
	"newscycle/internal/persistence/postgres"
	"newscycle/internal/persistence/sqlite"
	"newscycle/internal/pipeline"
	"newscycle/internal/retry"
	"newscycle/internal/rotation"
	"newscycle/internal/search"
	"newscycle/internal/tts"
	"newscycle/internal/visual"
)

// Components holds the long-lived services built once per process and
// shared by every run.
type Components struct {
	Config   *config.Config
	DB       persistence.Database
	Pipeline *pipeline.Pipeline
	Redis    *health.RedisSink

	closers []func() error
}

// Close releases everything in reverse construction order.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildComponents wires the pipeline from configuration. dryRun swaps the
// primary store for an in-memory one and skips the Redis mirror.
func buildComponents(ctx context.Context, cfg *config.Config, dryRun bool) (*Components, error) {
	c := &Components{Config: cfg}

	storage := cfg.Storage
	if dryRun {
		storage.Driver = "memory"
	}
	db, err := openDatabase(ctx, storage)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	providers, err := buildSearchProviders(cfg.Search)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	finder := search.NewOrchestrator(providers, search.Options{
		Topics:       cfg.Search.Topics,
		Fallbacks:    cfg.Search.Fallbacks,
		Generic:      cfg.Search.Generic,
		TopicDays:    cfg.Search.TopicDays,
		FallbackDays: cfg.Search.FallbackDays,
		GenericDays:  cfg.Search.GenericDays,
		MinChars:     cfg.Search.MinChars,
		MaxResults:   cfg.Search.MaxResults,
	})

	backends, closers, err := buildTextBackends(ctx, cfg.LLM)
	c.closers = append(c.closers, closers...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	writer := article.NewGenerator(backends, article.Options{
		MinWords:    cfg.Article.MinWords,
		MaxWords:    cfg.Article.MaxWords,
		Ceiling:     cfg.Article.Ceiling,
		Structure:   article.Structure(cfg.Article.Structure),
		BulletCount: cfg.Article.BulletCount,
		Temperature: cfg.Article.Temperature,
		MaxTokens:   cfg.Article.MaxTokens,
	})

	placeholder := visual.NewPlaceholder(cfg.Image.PlaceholderURL)
	placeholder.Width, placeholder.Height = cfg.Image.Width, cfg.Image.Height
	cascade := visual.NewCascade(buildImageStages(cfg.Image, cfg.LLM.Gemini.APIKey2), placeholder)

	store, err := buildObjectStore(cfg.ObjectStore)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	ledger := history.NewAccessor(db.History())

	var sinks []health.Sink
	if cfg.Health.RedisAddr != "" && !dryRun {
		c.Redis = health.NewRedisSink(cfg.Health.RedisAddr, cfg.Health.RedisPassword, cfg.Health.RedisDB,
			cfg.Health.RedisKey, cfg.Health.RedisTTLDuration())
		c.closers = append(c.closers, c.Redis.Close)
		sinks = append(sinks, c.Redis)
	}

	p, err := pipeline.NewBuilder().
		WithSourceFinder(finder).
		WithArticleWriter(writer).
		WithImageGenerator(cascade).
		WithImagePublisher(objectstore.NewPublisher(store, placeholder)).
		WithRecordWriter(rotation.NewWriter(db.Articles())).
		WithEvictor(rotation.NewEvictor(db.Articles(), ledger).WithBatchSize(cfg.Retention.BatchSize)).
		WithHistory(ledger).
		WithHealthReporter(health.NewReporter(db.Health(), cfg.Health.Runner, sinks...)).
		WithConfig(&pipeline.Config{
			MinKeep:        cfg.Retention.MinKeep,
			HistoryTTLDays: cfg.Retention.HistoryTTLDays,
			RecentTitles:   cfg.Retention.RecentTitles,
			TitleThreshold: cfg.Retention.TitleThreshold,
			SourceName:     cfg.App.SourceName,
		}).
		Build()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Pipeline = p

	logger.Info("Components ready",
		"storage", storage.Driver,
		"search_providers", len(providers),
		"text_backends", len(backends),
		"image_stages", len(cfg.Image.Providers),
		"object_store", cfg.ObjectStore.Driver,
	)
	return c, nil
}

// openDatabase opens the primary store for the configured driver.
func openDatabase(ctx context.Context, cfg config.Storage) (persistence.Database, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite", "":
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil
	case "postgres":
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// buildSearchProviders creates the ordered credential ladder.
func buildSearchProviders(cfg config.Search) ([]search.Provider, error) {
	factory := search.NewProviderFactory()
	providers := make([]search.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		provider, err := factory.CreateProvider(search.ProviderType(p.Type), map[string]string{
			"api_key":  p.APIKey,
			"label":    p.Label,
			"endpoint": p.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("search provider %s: %w", p.Type, err)
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// buildTextBackends creates backends in cfg.Order, skipping those without
// credentials. The returned closers must run even on error.
func buildTextBackends(ctx context.Context, cfg config.LLM) ([]llm.Backend, []func() error, error) {
	var backends []llm.Backend
	var closers []func() error

	for _, name := range cfg.Order {
		switch name {
		case "gemini":
			keys := []struct{ key, label string }{{cfg.Gemini.APIKey, ""}, {cfg.Gemini.APIKey2, "backup"}}
			for _, k := range keys {
				if k.key == "" {
					continue
				}
				b, err := llm.NewGeminiBackend(ctx, k.key, cfg.Gemini.Models)
				if err != nil {
					return nil, closers, err
				}
				closers = append(closers, b.Close)
				backends = append(backends, b.WithLabel(k.label))
			}
		case "cerebras":
			if cfg.Cerebras.APIKey == "" {
				continue
			}
			b, err := llm.NewCerebrasBackend(cfg.Cerebras.APIKey, cfg.Cerebras.Model)
			if err != nil {
				return nil, closers, err
			}
			if cfg.Cerebras.Endpoint != "" {
				b.SetEndpoint(cfg.Cerebras.Endpoint)
			}
			backends = append(backends, b)
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				continue
			}
			endpoint := cfg.OpenAI.Endpoint
			if endpoint == "" {
				endpoint = llm.OpenAIEndpoint
			}
			b, err := llm.NewOpenAICompatBackend("openai", endpoint, cfg.OpenAI.APIKey, cfg.OpenAI.Model)
			if err != nil {
				return nil, closers, err
			}
			backends = append(backends, b)
		default:
			return nil, closers, fmt.Errorf("unknown text backend: %s", name)
		}
	}
	return backends, closers, nil
}

// buildImageStages turns the configured provider list into cascade stages.
// Providers that need a key and have none are skipped. A Gemini entry without
// a model expands to one stage per default model, and to a second set for
// backupKey when present.
func buildImageStages(cfg config.Image, backupKey string) []visual.Stage {
	var stages []visual.Stage
	for _, p := range cfg.Providers {
		policy := imagePolicy(p)
		stage := func(g visual.Generator) visual.Stage {
			return visual.Stage{Generator: g, Policy: policy, MinBytes: p.MinBytes, Enhance: p.Enhance}
		}

		switch p.Type {
		case "flux":
			g := visual.NewFluxGenerator(p.Endpoint, p.APIKey)
			g.SetSize(cfg.Width, cfg.Height)
			stages = append(stages, stage(g))
		case "pollinations":
			g := visual.NewPollinationsGenerator(cfg.Width, cfg.Height)
			if p.Endpoint != "" {
				g.SetEndpoint(p.Endpoint)
			}
			stages = append(stages, stage(g))
		case "gemini":
			models := visual.DefaultGeminiImageModels
			if p.Model != "" {
				models = []string{p.Model}
			}
			keys := []struct{ key, label string }{{p.APIKey, p.Label}, {backupKey, "backup"}}
			for _, k := range keys {
				if k.key == "" {
					continue
				}
				for _, model := range models {
					g := visual.NewGeminiImageGenerator(k.key, model, k.label)
					if p.Endpoint != "" {
						g.SetBaseURL(p.Endpoint)
					}
					stages = append(stages, stage(g))
				}
			}
		case "openai":
			if p.APIKey == "" {
				continue
			}
			g := visual.NewOpenAIImageGenerator(p.APIKey, p.Model, cfg.Width, cfg.Height)
			if p.Endpoint != "" {
				g.SetBaseURL(p.Endpoint)
			}
			stages = append(stages, stage(g))
		default:
			logger.Warn("Skipping unknown image provider", "type", p.Type)
		}
	}
	return stages
}

func imagePolicy(p config.ImageProvider) retry.Policy {
	backoff, err := retry.ParseBackoff(p.Backoff, p.DelayDuration())
	if err != nil {
		backoff = retry.None()
	}
	policy := retry.Policy{MaxAttempts: max(p.Attempts, 1), Backoff: backoff}
	if d := p.RateLimitDuration(); d > 0 {
		policy.RateLimitBackoff = retry.Linear(d)
	}
	return policy
}

// buildObjectStore returns nil for the "none" driver, in which case the
// publisher always falls back to the static placeholder URL.
func buildObjectStore(cfg config.ObjectStore) (objectstore.Store, error) {
	switch cfg.Driver {
	case "local":
		return objectstore.NewLocalStore(cfg.Directory, cfg.BaseURL)
	case "cloudinary":
		c := cfg.Cloudinary
		return objectstore.NewCloudinaryStore(c.CloudName, c.APIKey, c.APISecret, c.Folder)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported object store driver: %s", cfg.Driver)
	}
}

// buildNarrator returns nil when no TTS provider is configured.
func buildNarrator(cfg config.TTS) (*tts.Narrator, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	client, err := tts.NewClient(tts.Config{
		Provider: tts.Provider(cfg.Provider),
		APIKey:   cfg.APIKey,
		Voice:    cfg.Voice,
		Model:    cfg.Model,
		Speed:    cfg.Speed,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tts client: %w", err)
	}
	return tts.NewNarrator(client, cfg.MaxChars, cfg.CacheTTLDuration()), nil
}
