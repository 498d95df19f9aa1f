package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newscycle",
		Short: "NewsCycle searches, writes, illustrates and publishes one news article per run.",
		Long: `NewsCycle runs a recurring publishing pipeline: it picks a topic, searches
for fresh sources it has not covered before, writes a short article through a
ranked list of text models, illustrates it through a cascade of image providers
and stores it in a rotating, capacity-bounded collection.

Examples:
  # Publish one article now
  newscycle run

  # Preview without writing anything
  newscycle run --dry-run --query "robotics news"

  # Run on a schedule with the status server
  newscycle schedule`,
		SilenceUsage: true,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newscycle.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewCleanupCmd())
	rootCmd.AddCommand(NewScheduleCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewMigrateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
}
