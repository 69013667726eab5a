package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuescraper/internal/bootstrap"
	"venuescraper/internal/browser"
	"venuescraper/internal/scraper"
	"venuescraper/internal/store"
)

// scrapeCmd runs a one-shot collection without the HTTP surface.
var scrapeCmd = &cobra.Command{
	Use:   "scrape [city ...]",
	Short: "Scrape venues once and exit",
	Long: `Runs the full bootstrap and a single scrape run, then exits. With city
arguments only those cities are scraped; without arguments the configured
city list is used.

Example:
  venuescraper scrape pune mumbai`,
	RunE: runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Scraper.Cities = args
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seq := bootstrap.New(cfg, logger)
	if err := seq.Run(ctx); err != nil {
		return err
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	mgr := browser.NewManager(cfg.Browser, logger)
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			logger.Warn("browser shutdown", zap.Error(err))
		}
	}()

	engine := scraper.New(cfg.Scraper, cfg.Server.Workers, mgr, db, logger)
	if err := engine.Run(ctx); err != nil {
		return err
	}

	n, err := db.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Scraped %d venues across %d cities\n", n, len(cfg.Scraper.Cities))
	return nil
}
