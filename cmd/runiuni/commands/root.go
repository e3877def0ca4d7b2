// Package commands implements the CLI commands for the runiuni pipeline.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "runiuni",
	Short: "Collect, enrich and publish local events",
	Long: `Runiuni finds event listings on the web, normalizes them into
publishable records and posts them to the RuniUni event API.

Events come from two sources: scanning known listing pages (scan) or
asking an LLM with web search to find events in a location (search).
Both feed the same enrichment pipeline: geocoding, date/time defaults,
tag inference, image attachment, description polish and validation.

Examples:
  # Scan listing pages and post what validates
  runiuni scan -u "https://pensacolaflorida.com/upcoming-events/"

  # Scan everything in a sources file, without posting
  runiuni scan --sources-file sources.json --dry-run

  # Search a location and post up to 10 events
  runiuni search -l "Pensacola, Florida" --max-events 10`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.runiuni.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".runiuni")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RUNIUNI")
	viper.AutomaticEnv()

	// API credentials and keys commonly live under their service names.
	_ = viper.BindEnv("username", "RUNIUNI_USERNAME")
	_ = viper.BindEnv("password", "RUNIUNI_PASSWORD")
	_ = viper.BindEnv("base_url", "RUNIUNI_BASE_URL")
	_ = viper.BindEnv("google_api_key", "GOOGLE_API_KEY")
	_ = viper.BindEnv("google_places_api_key", "GOOGLE_PLACES_API_KEY")
	_ = viper.BindEnv("search_engine_id", "SEARCH_ENGINE_ID")
	_ = viper.BindEnv("api_key", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY")

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
