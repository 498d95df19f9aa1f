// Package pipeline runs one publish cycle: search, write, illustrate, publish,
// rotate the store and report health.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newscycle/internal/article"
	"newscycle/internal/categorization"
	"newscycle/internal/core"
	"newscycle/internal/dedup"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/objectstore"
	"newscycle/internal/search"
	"newscycle/internal/visual"
)

// healthReportTimeout bounds the failure write made after a run is cancelled.
const healthReportTimeout = 10 * time.Second

// Pipeline orchestrates one article per Run. Components are constructed once
// and reused across runs.
type Pipeline struct {
	finder      SourceFinder
	writer      ArticleWriter
	images      ImageGenerator
	publisher   ImagePublisher
	records     RecordWriter
	evictor     Evictor // Optional
	history     HistoryLedger
	health      HealthReporter // Optional
	categorizer Categorizer

	config *Config
	now    func() time.Time
}

// Config holds pipeline configuration
type Config struct {
	MinKeep        int     // Primary store capacity floor
	HistoryTTLDays int     // History entries older than this are purged
	RecentTitles   int     // Titles passed to the generator and the fresh filter
	TitleThreshold float64 // Fuzzy title duplicate threshold
	SourceName     string  // Display label stored on each article
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		MinKeep:        50,
		HistoryTTLDays: 10,
		RecentTitles:   50,
		TitleThreshold: dedup.DefaultTitleThreshold,
		SourceName:     "NewsCycle",
	}
}

func (c Config) withDefaults() *Config {
	d := DefaultConfig()
	if c.MinKeep <= 0 {
		c.MinKeep = d.MinKeep
	}
	if c.HistoryTTLDays <= 0 {
		c.HistoryTTLDays = d.HistoryTTLDays
	}
	if c.RecentTitles <= 0 {
		c.RecentTitles = d.RecentTitles
	}
	if c.TitleThreshold <= 0 {
		c.TitleThreshold = d.TitleThreshold
	}
	if c.SourceName == "" {
		c.SourceName = d.SourceName
	}
	return &c
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return *p.config }

// WithClock overrides the time source (used by tests).
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// RunOptions controls a single run.
type RunOptions struct {
	Query  string // Empty picks a random topic
	DryRun bool   // Skip upload, persistence, rotation and health
}

// Result describes what a run produced.
type Result struct {
	Article     *core.Article
	Search      *search.Outcome
	Draft       *article.Draft
	Image       *visual.Image
	Publication objectstore.Publication
	Evicted     int
	Purged      int
	Health      *core.HealthRecord
	DryRun      bool
	Duration    time.Duration
}

// CleanupResult reports a maintenance pass.
type CleanupResult struct {
	Evicted int
	Purged  int
}

// Run executes one full cycle. Search and text exhaustion and a failed store
// write abort the run; every other failure is contained. Nothing is written to
// the primary store unless every earlier stage succeeded.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := p.clock()
	record := core.HealthRecord{}

	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = p.finder.PickTopic()
	}
	record.SearchQuery = query
	logger.Info("Pipeline run started", "query", query, "topic", search.ExtractTopic(query), "dry_run", opts.DryRun)

	// Step 1: load dedup memory
	known := p.loadKnown(ctx)

	// Step 2: find fresh sources
	outcome, err := p.finder.Find(ctx, query, known)
	if err != nil {
		return nil, p.fail(ctx, record, start, opts, fmt.Errorf("search failed: %w", err))
	}
	record.SearchQuery = outcome.Query
	record.SearchTier = outcome.Tier
	record.SearchResults = len(outcome.Results)

	pre := p.categorizer.Classify(outcome.Query, "", joinTitles(outcome.Results))

	// Step 3: write the body
	draft, err := p.writer.Generate(ctx, outcome.Results, known.Titles)
	if err != nil {
		return nil, p.fail(ctx, record, start, opts, fmt.Errorf("text generation failed: %w", err))
	}
	record.TextBackend = draft.Backend
	record.WordCount = draft.WordCount

	// Step 4: headline and category
	title := p.writer.Headline(ctx, draft.Body)
	scored := p.categorizer.Classify(outcome.Query, title, draft.Body)
	if scored == core.DefaultCategory {
		scored = pre
	}
	category := categorization.Resolve(scored, draft.CategoryLabel)
	logger.Info("Article categorized", "pre", string(pre), "scored", string(scored),
		"label", draft.CategoryLabel, "category", string(category))

	// Step 5: illustrate
	prompt := p.writer.ImagePrompt(ctx, draft.Body)
	img := p.images.Generate(ctx, prompt)

	a := &core.Article{
		ID:         uuid.NewString(),
		Title:      title,
		Body:       draft.Body,
		SourceURLs: outcome.URLs(),
		SourceName: p.config.SourceName,
		Category:   category,
		CreatedAt:  p.clock().UTC(),
	}
	record.Title = a.Title
	record.ArticleID = a.ID
	record.Category = a.Category
	record.ImagePrompt = prompt

	result := &Result{Article: a, Search: outcome, Draft: draft, Image: img, DryRun: opts.DryRun}

	if opts.DryRun {
		a.ImageURL = dryRunImageURL(img)
		a.ImageSource = imageSource(img)
		result.Duration = p.clock().Sub(start)
		logger.Info("Dry run complete", "title", a.Title, "category", string(a.Category),
			"words", draft.WordCount, "image_provider", img.Provider)
		return result, nil
	}

	// Step 6: publish the image
	pub := p.publisher.Publish(ctx, img, a.ID)
	a.ImageURL = pub.URL
	a.ImageSource = pub.Source
	result.Publication = pub
	record.ImageSource = pub.Source
	record.ImageProvider = pub.Provider
	metrics.ImageSource.WithLabelValues(pub.Source).Inc()

	// Step 7: persist
	if err := p.records.Write(ctx, a); err != nil {
		return nil, p.fail(ctx, record, start, opts, fmt.Errorf("%w: %w", ErrNoPublish, err))
	}
	p.history.Append(ctx, a.Title, a.SourceURLs, core.OriginPublish)

	// Step 8: rotate
	cleanup, err := p.Cleanup(ctx)
	if err != nil {
		logger.Error("Post-publish maintenance incomplete", err)
	}
	result.Evicted = cleanup.Evicted
	result.Purged = cleanup.Purged
	record.Evicted = cleanup.Evicted
	record.Purged = cleanup.Purged

	result.Duration = p.clock().Sub(start)
	record.DurationMs = result.Duration.Milliseconds()
	if p.health != nil {
		result.Health = p.health.Success(ctx, record)
	}

	logger.Info("Pipeline run complete", "id", a.ID, "title", a.Title, "category", string(a.Category),
		"words", draft.WordCount, "image_source", pub.Source, "evicted", cleanup.Evicted,
		"purged", cleanup.Purged, "duration", result.Duration.String())
	return result, nil
}

// Cleanup evicts excess articles and purges expired history. Both steps run
// even when the first fails; counts are accurate for what succeeded.
func (p *Pipeline) Cleanup(ctx context.Context) (CleanupResult, error) {
	var out CleanupResult
	var errs []error

	if p.evictor != nil {
		n, err := p.evictor.EvictExcess(ctx, p.config.MinKeep)
		out.Evicted = n
		if err != nil {
			errs = append(errs, fmt.Errorf("eviction: %w", err))
		}
	}

	n, err := p.history.PurgeOlderThan(ctx, p.config.HistoryTTLDays)
	out.Purged = n
	if err != nil {
		errs = append(errs, fmt.Errorf("history purge: %w", err))
	}

	return out, errors.Join(errs...)
}

// loadKnown reads the dedup memory. Read failures degrade to an empty set.
func (p *Pipeline) loadKnown(ctx context.Context) dedup.Known {
	known := dedup.Known{TitleThreshold: p.config.TitleThreshold}

	urls, err := p.history.LoadKnownURLs(ctx)
	if err != nil {
		logger.Error("Failed to load known URLs, continuing without URL dedup", err)
	}
	known.URLs = urls

	titles, err := p.history.LoadRecentTitles(ctx, p.config.RecentTitles)
	if err != nil {
		logger.Error("Failed to load recent titles, continuing without title dedup", err)
	}
	known.Titles = titles

	logger.Debug("Dedup memory loaded", "urls", len(known.URLs), "titles", len(known.Titles))
	return known
}

func (p *Pipeline) fail(ctx context.Context, record core.HealthRecord, start time.Time, opts RunOptions, err error) error {
	logger.Error("Pipeline run failed", err, "query", record.SearchQuery)
	record.DurationMs = p.clock().Sub(start).Milliseconds()
	if p.health != nil && !opts.DryRun {
		// The run's ctx may already be cancelled or past its deadline.
		reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), healthReportTimeout)
		defer cancel()
		p.health.Failure(reportCtx, record, err)
	}
	return err
}

func joinTitles(results []core.SearchResult) string {
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}
	return strings.Join(titles, " ")
}

func imageSource(img *visual.Image) string {
	if img == nil || img.Placeholder {
		return core.ImagePlaceholder
	}
	return core.ImageGenerated
}

func dryRunImageURL(img *visual.Image) string {
	if img == nil || img.Placeholder {
		return visual.DefaultPlaceholderURL
	}
	return fmt.Sprintf("dry-run://%s/%d-bytes", img.Provider, len(img.Data))
}
