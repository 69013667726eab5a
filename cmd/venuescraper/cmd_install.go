package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"venuescraper/internal/bootstrap"
)

// installCmd runs only the browser dependency step of the bootstrap.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the headless browser if it is missing",
	Long: `Runs the dependency presence check and, when no usable browser is
found, downloads the managed Chromium into the configured browsers
directory. A present browser makes this a no-op.`,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return bootstrap.New(cfg, logger).EnsureBrowser(ctx)
}
