// Package health records the outcome of each pipeline run for monitors.
package health

import (
	"context"
	"os"
	"time"
	"unicode/utf8"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/persistence"
)

// Sink mirrors health records somewhere outside the primary database.
type Sink interface {
	Name() string
	Publish(ctx context.Context, record *core.HealthRecord) error
}

// Reporter persists the last-run record and fans it out to sinks. Reporting
// never fails the caller.
type Reporter struct {
	repo   persistence.HealthRepository
	sinks  []Sink
	runner string
	now    func() time.Time
}

// NewReporter creates a reporter. runner identifies this process in records;
// empty uses the hostname.
func NewReporter(repo persistence.HealthRepository, runner string, sinks ...Sink) *Reporter {
	if runner == "" {
		runner = defaultRunner()
	}
	return &Reporter{repo: repo, sinks: sinks, runner: runner, now: time.Now}
}

func defaultRunner() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "newscycle"
}

// Success records a successful run.
func (r *Reporter) Success(ctx context.Context, record core.HealthRecord) *core.HealthRecord {
	record.Status = core.HealthSuccess
	record.Error = ""
	return r.report(ctx, record)
}

// Failure records a failed run with err's message.
func (r *Reporter) Failure(ctx context.Context, record core.HealthRecord, err error) *core.HealthRecord {
	record.Status = core.HealthFailed
	if err != nil {
		record.Error = truncate(err.Error(), 500)
	}
	return r.report(ctx, record)
}

func (r *Reporter) report(ctx context.Context, record core.HealthRecord) *core.HealthRecord {
	if record.Timestamp.IsZero() {
		record.Timestamp = r.now().UTC()
	}
	if record.Runner == "" {
		record.Runner = r.runner
	}
	record.ImagePrompt = truncate(record.ImagePrompt, 100)

	metrics.RecordRun(record.Status, time.Duration(record.DurationMs)*time.Millisecond)

	if r.repo != nil {
		if err := r.repo.Put(ctx, &record); err != nil {
			logger.Error("Failed to write health record", err, "status", record.Status)
		}
	}
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, &record); err != nil {
			logger.Error("Failed to publish health record", err, "sink", sink.Name())
		}
	}

	logger.Info("Health recorded", "status", record.Status, "duration_ms", record.DurationMs)
	return &record
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
