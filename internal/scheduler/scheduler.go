// Package scheduler runs pipeline jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newscycle/internal/logger"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler manages cron-based job scheduling with timezone support.
// A job still running when its next tick arrives is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entries  map[string]cron.EntryID
	ctx      context.Context
	started  bool
}

// New creates a scheduler for the given timezone; empty means UTC.
func New(timezone string) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	log := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		location: loc,
		entries:  make(map[string]cron.EntryID),
		ctx:      context.Background(),
	}, nil
}

// Add registers job under name with a standard five-field cron spec,
// replacing any job already registered under that name.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}

	id, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		logger.Info("Scheduled job started", "job", name)
		job(s.context())
		logger.Info("Scheduled job finished", "job", name, "duration", time.Since(started).String())
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.entries[name] = id
	logger.Info("Job scheduled", "job", name, "spec", spec, "timezone", s.location.String())
	return nil
}

// Next returns the next activation time of the named job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	if entry.Next.IsZero() {
		return entry.Schedule.Next(time.Now().In(s.location)), true
	}
	return entry.Next, true
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx
	s.started = true
	s.cron.Start()
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	stopped := s.cron.Stop()
	s.started = false
	s.mu.Unlock()

	<-stopped.Done()
	logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// cronLogger routes cron's internal logging to the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, err, keysAndValues...)
}
