package pipeline

import (
	"fmt"

	"newscycle/internal/categorization"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	finder      SourceFinder
	writer      ArticleWriter
	images      ImageGenerator
	publisher   ImagePublisher
	records     RecordWriter
	evictor     Evictor
	history     HistoryLedger
	health      HealthReporter
	categorizer Categorizer
	config      *Config
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		categorizer: categorization.DefaultTable(),
		config:      DefaultConfig(),
	}
}

// WithSourceFinder sets the search orchestrator
func (b *Builder) WithSourceFinder(f SourceFinder) *Builder {
	b.finder = f
	return b
}

// WithArticleWriter sets the text generator
func (b *Builder) WithArticleWriter(w ArticleWriter) *Builder {
	b.writer = w
	return b
}

// WithImageGenerator sets the image cascade
func (b *Builder) WithImageGenerator(g ImageGenerator) *Builder {
	b.images = g
	return b
}

// WithImagePublisher sets the object store publisher
func (b *Builder) WithImagePublisher(p ImagePublisher) *Builder {
	b.publisher = p
	return b
}

// WithRecordWriter sets the primary store writer
func (b *Builder) WithRecordWriter(w RecordWriter) *Builder {
	b.records = w
	return b
}

// WithEvictor sets the primary store evictor
func (b *Builder) WithEvictor(e Evictor) *Builder {
	b.evictor = e
	return b
}

// WithHistory sets the dedup ledger
func (b *Builder) WithHistory(h HistoryLedger) *Builder {
	b.history = h
	return b
}

// WithHealthReporter sets the health reporter
func (b *Builder) WithHealthReporter(h HealthReporter) *Builder {
	b.health = h
	return b
}

// WithCategorizer replaces the default keyword table
func (b *Builder) WithCategorizer(c Categorizer) *Builder {
	b.categorizer = c
	return b
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	// Validate required components
	switch {
	case b.finder == nil:
		return nil, fmt.Errorf("%w: source finder", ErrMissingComponent)
	case b.writer == nil:
		return nil, fmt.Errorf("%w: article writer", ErrMissingComponent)
	case b.images == nil:
		return nil, fmt.Errorf("%w: image generator", ErrMissingComponent)
	case b.publisher == nil:
		return nil, fmt.Errorf("%w: image publisher", ErrMissingComponent)
	case b.records == nil:
		return nil, fmt.Errorf("%w: record writer", ErrMissingComponent)
	case b.history == nil:
		return nil, fmt.Errorf("%w: history ledger", ErrMissingComponent)
	}

	config := b.config
	if config == nil {
		config = DefaultConfig()
	}

	return &Pipeline{
		finder:      b.finder,
		writer:      b.writer,
		images:      b.images,
		publisher:   b.publisher,
		records:     b.records,
		evictor:     b.evictor,
		history:     b.history,
		health:      b.health,
		categorizer: b.categorizer,
		config:      config.withDefaults(),
	}, nil
}
