package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/core"
	"newscycle/internal/health"
	"newscycle/internal/persistence"
)

// StatusReport is the machine-readable form of the status command.
type StatusReport struct {
	LastRun  *core.HealthRecord `json:"last_run"`
	Articles int                `json:"articles"`
	Recent   []core.Article     `json:"recent"`
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var (
		fromRedis bool
		jsonOut   bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last run and the most recent articles",
		Long: `Show the last-run health record, the stored article count and the newest
articles.

Examples:
  newscycle status
  newscycle status --redis   # read the last run from the Redis mirror
  newscycle status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd.Context(), config.Get(), fromRedis, jsonOut, limit)
		},
	}

	cmd.Flags().BoolVar(&fromRedis, "redis", false, "Read the last run from Redis instead of the primary store")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of recent articles to list")

	return cmd
}

func showStatus(ctx context.Context, cfg *config.Config, fromRedis, jsonOut bool, limit int) error {
	db, err := openDatabase(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := collectStatus(ctx, db, limit)
	if err != nil {
		return err
	}

	if fromRedis {
		if cfg.Health.RedisAddr == "" {
			return errors.New("health.redis_addr is not configured")
		}
		sink := health.NewRedisSink(cfg.Health.RedisAddr, cfg.Health.RedisPassword, cfg.Health.RedisDB,
			cfg.Health.RedisKey, cfg.Health.RedisTTLDuration())
		defer sink.Close()

		latest, err := sink.Latest(ctx)
		if err != nil {
			return err
		}
		report.LastRun = latest
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(renderHealth(report.LastRun))
	fmt.Println(renderStatusArticles(report))
	return nil
}

func collectStatus(ctx context.Context, db persistence.Database, limit int) (*StatusReport, error) {
	report := &StatusReport{}

	latest, err := db.Health().Latest(ctx)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("failed to read health record: %w", err)
	}
	report.LastRun = latest

	if report.Articles, err = db.Articles().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	if limit > 0 {
		if report.Recent, err = db.Articles().ListRecent(ctx, limit); err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
	}
	return report, nil
}

func renderStatusArticles(r *StatusReport) string {
	out := field("Articles stored", r.Articles)
	for _, a := range r.Recent {
		out += "\n  " + labelStyle.Render(a.CreatedAt.Format(timeDisplay)) + "  " + a.Title +
			" " + labelStyle.Render("["+string(a.Category)+"]")
	}
	return out
}
