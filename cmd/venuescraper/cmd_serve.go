package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuescraper/internal/bootstrap"
	"venuescraper/internal/browser"
	"venuescraper/internal/config"
	"venuescraper/internal/scraper"
	"venuescraper/internal/server"
	"venuescraper/internal/store"
)

var serveFlags struct {
	host      string
	port      int
	workers   int
	threads   int
	timeout   int
	logLevel  string
	accessLog string
	errorLog  string
	dataDir   string
}

// serveCmd runs the HTTP server. This is what the start command execs into;
// its flags mirror the launch configuration one to one.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scraper HTTP server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.host, "host", "", "bind address (default from config)")
	f.IntVar(&serveFlags.port, "port", 0, "listen port (default from config)")
	f.IntVar(&serveFlags.workers, "workers", 0, "parallel city scrape workers")
	f.IntVar(&serveFlags.threads, "threads", 0, "server thread hint")
	f.IntVar(&serveFlags.timeout, "timeout", 0, "request timeout in seconds")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&serveFlags.accessLog, "access-log", "", `access log destination ("-" = stdout)`)
	f.StringVar(&serveFlags.errorLog, "error-log", "", `error log destination ("-" = stderr)`)
	f.StringVar(&serveFlags.dataDir, "data-dir", "", "data directory")
}

// applyServeFlags overlays explicitly set flags on the resolved config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveFlags.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if cmd.Flags().Changed("workers") {
		cfg.Server.Workers = serveFlags.workers
	}
	if cmd.Flags().Changed("threads") {
		cfg.Server.Threads = serveFlags.threads
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Server.TimeoutSeconds = serveFlags.timeout
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Server.LogLevel = serveFlags.logLevel
	}
	if cmd.Flags().Changed("access-log") {
		cfg.Server.AccessLog = serveFlags.accessLog
	}
	if cmd.Flags().Changed("error-log") {
		cfg.Server.ErrorLog = serveFlags.errorLog
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = serveFlags.dataDir
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	applyLogLevel(cfg.Server.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// serve may run standalone, without the start bootstrap.
	if err := bootstrap.EnsureDataDir(cfg.DataDir); err != nil {
		return err
	}

	accessLog, err := newSinkLogger(cfg.Server.AccessLog, "stdout")
	if err != nil {
		return err
	}
	defer accessLog.Sync()

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := browser.NewManager(cfg.Browser, logger)
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			logger.Warn("browser shutdown", zap.Error(err))
		}
	}()

	engine := scraper.New(cfg.Scraper, cfg.Server.Workers, mgr, db, logger)

	// Pick up log-level changes from the config file without a restart.
	if watcher, err := config.NewWatcher(cfgPath, func(next *config.Config) {
		logger.Info("config file changed", zap.String("log_level", next.Server.LogLevel))
		applyLogLevel(next.Server.LogLevel)
	}); err == nil {
		if err := watcher.Start(ctx); err == nil {
			defer watcher.Stop()
		}
	}

	srv := server.New(cfg, logger, db, engine).WithAccessLogger(accessLog)
	return srv.Run(ctx)
}
