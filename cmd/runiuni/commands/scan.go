package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/fetch"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/pipeline"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Extract events from listing pages and publish them",
	Long: `Scan fetches each page, extracts event records and runs them
through enrichment, validation and posting.

Extraction tries schema.org LD+JSON first, then a site-specific adapter
(Eventbrite, Meetup, Ticketmaster, Facebook), then generic page
heuristics. Pages that fail to fetch or parse are skipped, never fatal.

Examples:
  # One page, posting what validates
  runiuni scan -u "https://pensacolaflorida.com/upcoming-events/"

  # A sources file plus extra URLs, JavaScript-rendered pages
  runiuni scan --sources-file sources.json \
      -u "https://www.meetup.com/find/?location=Pensacola" \
      --fetch-mode dynamic --dry-run`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.StringSliceP("url", "u", nil, "URL(s) to scan (can be repeated)")
	flags.String("sources-file", "", "JSON file listing source URLs")
	flags.String("fetch-mode", "static", "fetch mode: static, dynamic")
	flags.String("wait-for", "", "CSS selector to wait for (dynamic mode)")
	flags.Duration("timeout", 15*time.Second, "per-page fetch timeout")
	flags.IntP("concurrency", "c", scan.DefaultConcurrency, "concurrent page fetches")

	addPipelineFlags(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	urls, _ := cmd.Flags().GetStringSlice("url")
	sourcesFile, _ := cmd.Flags().GetString("sources-file")

	if sourcesFile != "" {
		fromFile, err := scan.LoadSources(sourcesFile)
		if err != nil {
			logger.Error("failed to load sources file", "path", sourcesFile, "error", err)
			return err
		}
		urls = scan.MergeURLs(urls, fromFile)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs to scan; use --url or --sources-file")
	}

	opts := pipelineOptions(cmd)
	if err := requireCredentials(opts); err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	fetchMode, _ := cmd.Flags().GetString("fetch-mode")

	cfg := fetch.DefaultConfig()
	cfg.Timeout = timeout

	var fetcher fetch.Fetcher
	switch fetchMode {
	case "dynamic":
		dynamic, err := fetch.NewDynamicFetcher(cfg)
		if err != nil {
			logger.Error("failed to start browser fetcher", "error", err)
			return err
		}
		fetcher = dynamic
	case "static", "":
		fetcher = fetch.NewStaticFetcher(cfg)
	default:
		return fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", fetchMode)
	}
	defer func() { _ = fetcher.Close() }()

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = timeout
	if waitFor, _ := cmd.Flags().GetString("wait-for"); waitFor != "" {
		fetchOpts.WaitForSelector = waitFor
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	scanner := scan.New(fetcher,
		scan.WithConcurrency(concurrency),
		scan.WithFetchOptions(fetchOpts),
	)

	provider, err := buildProvider()
	if err != nil {
		logger.Error("failed to create LLM provider", "error", err)
		return err
	}
	if provider == nil {
		logger.Warn("no LLM provider configured, descriptions fall back to stock text")
	}

	p := pipeline.New(opts, append(sharedStages(opts, provider), pipeline.WithScanner(scanner))...)

	report, err := p.ScanURLs(ctx, urls)
	if err != nil {
		logger.Error("scan pipeline failed", "error", err)
		return err
	}

	logger.Info("scan pipeline finished",
		"extracted", report.EventsExtracted,
		"valid", report.EventsValid,
		"posted", report.EventsPosted,
		"failed", report.EventsFailed,
		"duration", fmt.Sprintf("%.2fs", report.DurationSeconds))

	return writeReport(cmd, report)
}
