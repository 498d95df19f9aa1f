package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
)

// NewCleanupCmd creates the cleanup command
func NewCleanupCmd() *cobra.Command {
	var (
		minKeep int
		ttlDays int
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Evict excess articles and purge expired history",
		Long: `Trim the primary store to its capacity floor, archiving evicted articles
into history, then delete history entries older than the retention window.
Nothing is generated.

Examples:
  newscycle cleanup
  newscycle cleanup --min-keep 30 --ttl-days 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.Get()
			if minKeep > 0 {
				cfg.Retention.MinKeep = minKeep
			}
			if ttlDays > 0 {
				cfg.Retention.HistoryTTLDays = ttlDays
			}
			return runCleanup(cmd.Context(), &cfg)
		},
	}

	cmd.Flags().IntVar(&minKeep, "min-keep", 0, "Articles to keep (default from config)")
	cmd.Flags().IntVar(&ttlDays, "ttl-days", 0, "History retention in days (default from config)")

	return cmd
}

func runCleanup(ctx context.Context, cfg *config.Config) error {
	components, err := buildComponents(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer components.Close()

	result, err := components.Pipeline.Cleanup(ctx)
	fmt.Printf("Evicted %d article(s), purged %d history entries\n", result.Evicted, result.Purged)
	if err != nil {
		return fmt.Errorf("cleanup incomplete: %w", err)
	}
	return nil
}
