package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"newscycle/internal/config"
	"newscycle/internal/logger"
	"newscycle/internal/pipeline"
	"newscycle/internal/scheduler"
	"newscycle/internal/server"
)

// NewScheduleCmd creates the schedule command
func NewScheduleCmd() *cobra.Command {
	var (
		cronSpec string
		listen   string
		noServer bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule with an HTTP status server",
		Long: `Run publishing cycles on schedule.run and maintenance on schedule.cleanup,
while serving /health, /api/articles and /metrics.

Examples:
  # Defaults from config: every 6 hours, cleanup at midnight, port 8080
  newscycle schedule

  # Every two hours, status server on localhost:9090
  newscycle schedule --cron "0 */2 * * *" --listen 127.0.0.1:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.Get()
			if cronSpec != "" {
				cfg.Schedule.Run = cronSpec
			}
			if listen != "" {
				host, port, err := parseListen(listen)
				if err != nil {
					return err
				}
				cfg.Server.Host, cfg.Server.Port = host, port
			}
			return runSchedule(cmd.Context(), &cfg, !noServer)
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression for publishing runs (default from config)")
	cmd.Flags().StringVar(&listen, "listen", "", "Status server address host:port (default from config)")
	cmd.Flags().BoolVar(&noServer, "no-server", false, "Do not start the HTTP status server")

	return cmd
}

func parseListen(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in --listen address %q", addr)
	}
	return host, port, nil
}

func runSchedule(ctx context.Context, cfg *config.Config, withServer bool) error {
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	components, err := buildComponents(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer components.Close()

	sched, err := scheduler.New(cfg.Schedule.Timezone)
	if err != nil {
		return err
	}

	runTimeout := 15 * time.Minute
	if d, err := time.ParseDuration(cfg.Schedule.RunTimeout); err == nil && d > 0 {
		runTimeout = d
	}
	runJob := func(ctx context.Context) {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if _, err := components.Pipeline.Run(runCtx, pipeline.RunOptions{}); err != nil {
			logger.Error("Scheduled run failed", err)
		}
	}
	cleanupJob := func(ctx context.Context) {
		if _, err := components.Pipeline.Cleanup(ctx); err != nil {
			logger.Error("Scheduled cleanup incomplete", err)
		}
	}

	if err := sched.Add("run", cfg.Schedule.Run, runJob); err != nil {
		return err
	}
	if cfg.Schedule.Cleanup != "" {
		if err := sched.Add("cleanup", cfg.Schedule.Cleanup, cleanupJob); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	if cfg.Schedule.RunOnStart {
		g.Go(func() error {
			runJob(gctx)
			return nil
		})
	}

	if withServer {
		opts := []server.Option{server.WithSchedule(sched)}
		if prefix := localImagePrefix(cfg.ObjectStore); prefix != "" {
			opts = append(opts, server.WithImages(cfg.ObjectStore.Directory, prefix))
		}
		narrator, err := buildNarrator(cfg.TTS)
		if err != nil {
			return err
		}
		if narrator != nil {
			opts = append(opts, server.WithAudio(narrator))
			logger.Info("Article audio enabled", "provider", cfg.TTS.Provider)
		}
		srv := server.New(components.DB, cfg.Server, opts...)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("Scheduler running", "run", cfg.Schedule.Run, "cleanup", cfg.Schedule.Cleanup,
		"timezone", cfg.Schedule.Timezone, "server", withServer)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// localImagePrefix returns the path under which locally stored images are
// served, or "" when images are not stored locally.
func localImagePrefix(cfg config.ObjectStore) string {
	if cfg.Driver != "local" || cfg.Directory == "" {
		return ""
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return u.Path
}
