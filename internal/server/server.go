// Package server exposes the venue scraper over HTTP: a small dashboard,
// endpoints to start a run and poll its progress, and data downloads.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"venuescraper/internal/config"
	"venuescraper/internal/store"
)

// Runner starts scrape runs. Implemented by scraper.Scraper.
type Runner interface {
	Running() bool
	StartBackground(ctx context.Context) (string, error)
}

// Server handles the HTTP surface.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	access *zap.Logger
	db     *store.Store
	runner Runner
	router chi.Router
}

// New assembles the router.
func New(cfg *config.Config, log *zap.Logger, db *store.Store, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		log:    log,
		access: log,
		db:     db,
		runner: runner,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/", s.handleIndex)
	r.Post("/start_scraping", s.handleStartScraping)
	r.Get("/status", s.handleStatus)
	r.Get("/download/venues.csv", s.handleDownloadCSV)
	r.Get("/download/venues.json", s.handleDownloadJSON)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// WithAccessLogger routes per-request log lines to a dedicated logger so
// access and error output can go to separate destinations.
func (s *Server) WithAccessLogger(access *zap.Logger) *Server {
	s.access = access
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Bind(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.TimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
