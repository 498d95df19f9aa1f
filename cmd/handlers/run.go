package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/pipeline"
)

// NewRunCmd creates the run command that publishes one article
func NewRunCmd() *cobra.Command {
	var (
		query   string
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and publish one article",
		Long: `Run one publishing cycle: search, write, illustrate, publish, rotate.

A search or text-generation failure aborts the run, records a failed health
record and exits non-zero. Image and upload failures fall back to the
placeholder and never abort.

Examples:
  # Publish one article on a random topic
  newscycle run

  # Use a specific query
  newscycle run --query "Nvidia AMD AI chip semiconductor news"

  # Preview against an in-memory store without uploading
  newscycle run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), config.Get(), pipeline.RunOptions{Query: query, DryRun: dryRun}, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search query (default: random topic)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate without uploading or persisting")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the article as JSON")

	return cmd
}

func runOnce(ctx context.Context, cfg *config.Config, opts pipeline.RunOptions, jsonOut bool) error {
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	components, err := buildComponents(ctx, cfg, opts.DryRun)
	if err != nil {
		return err
	}
	defer components.Close()

	result, err := components.Pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Article)
	}

	fmt.Println(renderArticle(result.Article))
	fmt.Println(renderRunSummary(result))
	return nil
}
