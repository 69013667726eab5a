// Package main implements the venuescraper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"venuescraper/internal/config"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Logger
	logger   *zap.Logger
	logLevel zap.AtomicLevel
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "venuescraper",
	Short: "Sports venue scraper for KheloMore city listings",
	Long: `venuescraper collects sports venue data from KheloMore city listing
pages using a managed headless Chromium, stores the results locally, and
serves them over HTTP.

The start command runs the full bootstrap (browser install check, data
directory, configuration resolution) and then replaces itself with the
server process. serve runs the server directly; scrape runs a one-shot
collection without the HTTP surface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Level = logLevel
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig resolves the launch configuration: defaults, then the optional
// config file, then a snapshot of the process environment. Warnings from
// defaulted values are logged here so every command reports them uniformly.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	warnings, err := cfg.ApplyEnv(config.Snapshot())
	for _, w := range warnings {
		logger.Warn(w)
	}
	if err != nil {
		return nil, err
	}

	applyLogLevel(cfg.Server.LogLevel)
	return cfg, nil
}

func applyLogLevel(level string) {
	if verbose {
		return // --verbose wins
	}
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		logLevel.SetLevel(parsed)
	}
}

// newSinkLogger builds a logger writing to the given destination, where "-"
// means the fallback stream. Used for the access and error log targets.
func newSinkLogger(dest, fallback string) (*zap.Logger, error) {
	if dest == "" || dest == "-" {
		dest = fallback
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = logLevel
	zcfg.OutputPaths = []string{dest}
	return zcfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
