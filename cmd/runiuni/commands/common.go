package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/editor"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/enhance"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/llm"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/output"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/pipeline"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/publish"
)

// addPipelineFlags registers the flags shared by every pipeline command.
func addPipelineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// API credentials
	flags.String("username", "", "RuniUni username (or RUNIUNI_USERNAME)")
	flags.String("password", "", "RuniUni password (or RUNIUNI_PASSWORD)")
	flags.String("api-url", "", "RuniUni API base URL (or RUNIUNI_BASE_URL)")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: openai, anthropic, openrouter (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")

	// Pipeline settings
	flags.Int("max-events", 10, "maximum events to process")
	flags.Bool("dry-run", false, "run everything except posting to the API")
	flags.String("artifact-dir", "", "directory for per-stage JSON snapshots")
	flags.Duration("request-delay", time.Second, "delay between posting requests")
	flags.Duration("image-delay", time.Second, "delay between image search requests")

	// Output settings
	flags.StringP("output", "o", "", "write the run report to this file (default: stdout)")
	flags.String("format", "json", "report format: json, jsonl, yaml")

	_ = viper.BindPFlag("username", flags.Lookup("username"))
	_ = viper.BindPFlag("password", flags.Lookup("password"))
	_ = viper.BindPFlag("base_url", flags.Lookup("api-url"))
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
}

func initLogging() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}

// pipelineOptions reads the shared pipeline flags.
func pipelineOptions(cmd *cobra.Command) pipeline.Options {
	maxEvents, _ := cmd.Flags().GetInt("max-events")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	artifactDir, _ := cmd.Flags().GetString("artifact-dir")
	requestDelay, _ := cmd.Flags().GetDuration("request-delay")
	imageDelay, _ := cmd.Flags().GetDuration("image-delay")

	return pipeline.Options{
		MaxEvents:    maxEvents,
		DryRun:       dryRun,
		ArtifactDir:  artifactDir,
		RequestDelay: requestDelay,
		ImageDelay:   imageDelay,
	}
}

// buildProvider creates the configured LLM provider, or nil when no
// provider flag or API key is present.
func buildProvider() (llm.Provider, error) {
	name := viper.GetString("provider")
	apiKey := ""
	if name == "" {
		name, apiKey = llm.DetectProvider()
		if name == "" {
			return nil, nil
		}
	}
	if apiKey == "" {
		apiKey = viper.GetString("api_key")
	}

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = viper.GetString("model")
	return llm.NewProvider(name, cfg)
}

// sharedStages wires the enrichment components used by both pipelines.
func sharedStages(opts pipeline.Options, provider llm.Provider) []pipeline.Option {
	options := []pipeline.Option{
		pipeline.WithEditor(editor.New(provider)),
	}

	googleKey := viper.GetString("google_api_key")
	placesKey := viper.GetString("google_places_api_key")
	if placesKey == "" {
		placesKey = googleKey
	}
	if placesKey != "" {
		options = append(options,
			pipeline.WithEnhancer(enhance.New(enhance.WithGeocoder(enhance.NewGoogleGeocoder(placesKey)))))
	} else {
		logger.Warn("GOOGLE_PLACES_API_KEY not set, skipping geocoding")
	}

	engineID := viper.GetString("search_engine_id")
	if googleKey != "" && engineID != "" {
		options = append(options,
			pipeline.WithImageSearcher(enhance.NewGoogleImageSearcher(googleKey, engineID)))
	} else {
		logger.Warn("GOOGLE_API_KEY or SEARCH_ENGINE_ID not set, missing images get the placeholder")
	}

	if !opts.DryRun {
		options = append(options, pipeline.WithPoster(publish.New(publish.Config{
			Username: viper.GetString("username"),
			Password: viper.GetString("password"),
			BaseURL:  viper.GetString("base_url"),
		})))
	}

	return options
}

// requireCredentials fails early when a live run is missing API
// credentials.
func requireCredentials(opts pipeline.Options) error {
	if opts.DryRun {
		return nil
	}
	if viper.GetString("username") == "" || viper.GetString("password") == "" {
		return fmt.Errorf("username and password are required unless --dry-run is set")
	}
	if viper.GetString("base_url") == "" {
		return fmt.Errorf("API base URL is required unless --dry-run is set")
	}
	return nil
}

// writeReport emits the run report to the chosen destination.
func writeReport(cmd *cobra.Command, report any) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	dest := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	w, err := output.NewWriter(dest, format)
	if err != nil {
		return err
	}
	if err := w.Write(report); err != nil {
		return err
	}
	return w.Flush()
}
