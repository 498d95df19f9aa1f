// Package metrics exposes Prometheus collectors for pipeline runs and provider cascades.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels for ProviderAttempts.
const (
	StageSearch = "search"
	StageText   = "text"
	StageImage  = "image"
	StageUpload = "upload"
	StageSpeech = "speech"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscycle_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newscycle_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscycle_provider_attempts_total",
			Help: "Provider calls by cascade stage, provider and outcome",
		},
		[]string{"stage", "provider", "outcome"},
	)

	SearchTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscycle_search_tier_total",
			Help: "Search tier that produced the fresh results of a run",
		},
		[]string{"tier"},
	)

	DuplicatesFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newscycle_search_duplicates_filtered_total",
			Help: "Search results discarded because they were already in history",
		},
	)

	ImageSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscycle_image_source_total",
			Help: "Published images by source (generated or placeholder)",
		},
		[]string{"source"},
	)

	ArticlesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newscycle_articles_evicted_total",
			Help: "Articles evicted from the primary store",
		},
	)

	HistoryPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newscycle_history_purged_total",
			Help: "History entries deleted by the TTL purge",
		},
	)
)

// RecordAttempt counts one provider call. A nil err counts as success.
func RecordAttempt(stage, provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ProviderAttempts.WithLabelValues(stage, provider, outcome).Inc()
}

// RecordRun counts a finished run and observes its duration.
func RecordRun(status string, duration time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
