package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"venuescraper/internal/bootstrap"
)

// startCmd is the deployment entry point: it prepares the runtime and then
// replaces itself with the server process.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Bootstrap the environment and hand off to the server",
	Long: `Runs the full startup sequence:

  1. Ensure the headless browser is installed (install it if missing)
  2. Ensure the data directory exists
  3. Resolve the launch configuration from environment and config file
  4. Replace this process with "venuescraper serve" via exec

Any failure aborts startup; the server never starts without its browser
dependency.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seq := bootstrap.New(cfg, logger)
	if err := seq.Run(ctx); err != nil {
		return err
	}

	// Does not return on success.
	return seq.Handoff()
}
