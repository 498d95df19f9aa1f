package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/persistence/postgres"
)

// NewMigrateCmd creates the migrate command for database migrations
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage PostgreSQL schema migrations",
		Long: `Manage the PostgreSQL schema.

The sqlite and memory drivers create their schema on open; this command only
applies to storage.driver=postgres.

Subcommands:
  up       Apply all pending migrations
  status   Show migration status`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context(), config.Get())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateStatus(cmd.Context(), config.Get())
		},
	})

	return cmd
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	if cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("migrations only apply to the postgres driver (configured: %s)", cfg.Storage.Driver)
	}
	return postgres.New(ctx, cfg.Storage.DSN)
}

func runMigrateUp(ctx context.Context, cfg *config.Config) error {
	// Opening the database applies pending migrations
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer db.Close()

	fmt.Println("✅ All migrations applied successfully")
	return nil
}

func runMigrateStatus(ctx context.Context, cfg *config.Config) error {
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.Migrations().Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	if len(status) == 0 {
		fmt.Println("No migrations found")
		return nil
	}

	fmt.Printf("%-10s %-10s %s\n", "Version", "Status", "Description")
	for _, m := range status {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		fmt.Printf("%-10d %-10s %s\n", m.Version, state, m.Description)
	}
	return nil
}
