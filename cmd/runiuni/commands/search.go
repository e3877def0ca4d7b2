package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/agentparse"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/pipeline"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/searcher"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find events in a location with an LLM and publish them",
	Long: `Search asks an LLM to find upcoming events in each location and
runs the results through enrichment, validation and posting.

Requires an LLM provider API key (OPENAI_API_KEY, ANTHROPIC_API_KEY or
OPENROUTER_API_KEY).

Examples:
  # One location, dry run
  runiuni search -l "Pensacola, Florida" --dry-run

  # Several locations, saving model replies for inspection
  runiuni search -l "Pensacola, Florida" -l "Mobile, Alabama" \
      --artifact-dir ./artifacts`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	flags := searchCmd.Flags()
	flags.StringSliceP("location", "l", nil, "location(s) to search (can be repeated)")

	addPipelineFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	locations, _ := cmd.Flags().GetStringSlice("location")
	if len(locations) == 0 {
		return fmt.Errorf("no locations to search; use --location")
	}

	opts := pipelineOptions(cmd)
	if err := requireCredentials(opts); err != nil {
		return err
	}

	provider, err := buildProvider()
	if err != nil {
		logger.Error("failed to create LLM provider", "error", err)
		return err
	}
	if provider == nil {
		return fmt.Errorf("search needs an LLM provider; set an API key or --provider")
	}

	searchOpts := []searcher.Option{searcher.WithLimit(opts.MaxEvents)}
	if opts.ArtifactDir != "" {
		searchOpts = append(searchOpts, searcher.WithArtifacts(agentparse.NewArtifactStore(opts.ArtifactDir)))
	}

	p := pipeline.New(opts, append(sharedStages(opts, provider),
		pipeline.WithSearcher(searcher.New(provider, searchOpts...)))...)

	var reports []pipeline.Report
	for _, location := range locations {
		report, err := p.SearchLocation(ctx, location)
		if err != nil {
			logger.Error("search pipeline failed", "location", location, "error", err)
		}
		reports = append(reports, report)
	}

	var found, valid, posted, failed int
	for _, r := range reports {
		found += r.EventsExtracted
		valid += r.EventsValid
		posted += r.EventsPosted
		failed += r.EventsFailed
	}
	logger.Info("search pipeline finished",
		"locations", len(locations),
		"found", found,
		"valid", valid,
		"posted", posted,
		"failed", failed)

	if len(reports) == 1 {
		return writeReport(cmd, reports[0])
	}
	return writeReport(cmd, reports)
}
