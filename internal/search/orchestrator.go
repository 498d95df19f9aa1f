package search

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/dedup"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/retry"
)

// Tier is one rung of the escalation ladder.
type Tier struct {
	Number   int
	Query    string
	Days     int
	MinChars int // Combined title+description floor; 0 disables it
}

// Outcome describes the tier that produced fresh results.
type Outcome struct {
	Results  []core.SearchResult
	Query    string
	Tier     int
	Provider string
	Filtered int // Duplicates removed across all tiers tried
}

// URLs returns the result URLs in order, skipping blanks.
func (o *Outcome) URLs() []string {
	urls := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// Options configures the escalation ladder.
type Options struct {
	Topics       []string
	Fallbacks    []string
	Generic      string
	TopicDays    int
	FallbackDays int
	GenericDays  int
	MinChars     int
	MaxResults   int
	Rand         *rand.Rand
}

// Orchestrator walks the tiers, trying each provider in order within a tier.
type Orchestrator struct {
	providers []Provider
	opts      Options
	rng       *rand.Rand
}

// NewOrchestrator creates an orchestrator over providers, tried in the given order.
// Zero-valued options take the defaults.
func NewOrchestrator(providers []Provider, opts Options) *Orchestrator {
	if len(opts.Topics) == 0 {
		opts.Topics = DefaultTopicQueries
	}
	if len(opts.Fallbacks) == 0 {
		opts.Fallbacks = DefaultFallbackQueries
	}
	if opts.Generic == "" {
		opts.Generic = DefaultGenericQuery
	}
	if opts.TopicDays <= 0 {
		opts.TopicDays = 3
	}
	if opts.FallbackDays <= 0 {
		opts.FallbackDays = 3
	}
	if opts.GenericDays <= 0 {
		opts.GenericDays = 7
	}
	if opts.MinChars < 0 {
		opts.MinChars = 0
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{providers: providers, opts: opts, rng: rng}
}

// PickTopic returns a random query from the topic pool.
func (o *Orchestrator) PickTopic() string {
	return o.opts.Topics[o.rng.Intn(len(o.opts.Topics))]
}

// Tiers builds the ladder for query. The fallback query is drawn at call time.
func (o *Orchestrator) Tiers(query string) []Tier {
	return []Tier{
		{Number: 1, Query: query, Days: o.opts.TopicDays, MinChars: o.opts.MinChars},
		{Number: 2, Query: o.opts.Fallbacks[o.rng.Intn(len(o.opts.Fallbacks))], Days: o.opts.FallbackDays},
		{Number: 3, Query: o.opts.Generic, Days: o.opts.GenericDays},
	}
}

type tierHit struct {
	results  []core.SearchResult
	provider string
}

// Find escalates through the tiers until one yields fresh results.
// It returns ErrNoFreshResults when all three are exhausted.
func (o *Orchestrator) Find(ctx context.Context, query string, known dedup.Known) (*Outcome, error) {
	if len(o.providers) == 0 {
		return nil, ErrNoProviders
	}

	filtered := 0
	for _, tier := range o.Tiers(query) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hit, err := o.searchTier(ctx, tier)
		if err != nil {
			logger.Warn("Search tier exhausted", "tier", tier.Number, "query", tier.Query, "error", err.Error())
			continue
		}

		fresh, removed := known.Fresh(hit.results)
		filtered += removed
		metrics.DuplicatesFiltered.Add(float64(removed))

		chars := textLength(fresh)
		if len(fresh) == 0 || chars < tier.MinChars {
			logger.Warn("Search tier produced nothing fresh",
				"tier", tier.Number, "query", tier.Query, "results", len(hit.results),
				"fresh", len(fresh), "chars", chars, "filtered", removed)
			continue
		}

		logger.Info("Search tier succeeded",
			"tier", tier.Number, "query", tier.Query, "provider", hit.provider,
			"fresh", len(fresh), "chars", chars, "filtered", filtered)
		metrics.SearchTier.WithLabelValues(fmt.Sprint(tier.Number)).Inc()

		return &Outcome{
			Results:  fresh,
			Query:    tier.Query,
			Tier:     tier.Number,
			Provider: hit.provider,
			Filtered: filtered,
		}, nil
	}

	return nil, ErrNoFreshResults
}

// searchTier tries each provider once, in order, returning the first non-empty result list.
func (o *Orchestrator) searchTier(ctx context.Context, tier Tier) (tierHit, error) {
	config := Config{
		MaxResults: o.opts.MaxResults,
		SinceTime:  time.Duration(tier.Days) * 24 * time.Hour,
		Language:   "en",
	}

	hit, _, err := retry.FirstSuccess(ctx, o.providers, func(ctx context.Context, p Provider) (tierHit, error) {
		results, err := p.Search(ctx, tier.Query, config)
		if err == nil && len(results) == 0 {
			err = ErrNoResults
		}
		metrics.RecordAttempt(metrics.StageSearch, p.GetName(), err)
		if err != nil {
			logger.Warn("Search provider failed", "provider", p.GetName(), "tier", tier.Number, "query", tier.Query, "error", err.Error())
			return tierHit{}, err
		}
		return tierHit{results: results, provider: p.GetName()}, nil
	})
	return hit, err
}

func textLength(results []core.SearchResult) int {
	total := 0
	for _, r := range results {
		total += r.TextLength()
	}
	return total
}
