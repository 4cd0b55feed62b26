package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tbburden/internal/config"
	"github.com/KaramelBytes/tbburden/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "tbburden",
	Short: "Tuberculosis burden analysis for the latest reporting year",
	Long: `tbburden loads the country-level TB burden snapshot, keeps the latest year,
cleans seven indicator columns and reports correlations, an OLS mortality model
with influential-point removal, the top countries by incidence and k-means
burden clusters.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tbburden/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging and record dumps")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text | json (overrides config)")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
	level, format := slog.LevelInfo, "text"
	if cfg != nil {
		level, format = logging.ParseLevel(cfg.LogLevel), cfg.LogFormat
	}
	if debug {
		level = slog.LevelDebug
	}
	if logFormat != "" {
		format = logFormat
	}
	logging.Init(level, format, os.Stderr)
	if cfgErr != nil {
		// Non-fatal: commands that need config report it themselves
		logging.New("config").Warn("failed to load config", "error", cfgErr)
	}
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("load config: %w", cfgErr)
		}
		return nil, fmt.Errorf("no configuration loaded")
	}
	return cfg, nil
}
