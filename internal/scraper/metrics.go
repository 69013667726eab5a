package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapeRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_runs_total",
		Help: "Total number of scrape runs started.",
	})

	scrapeRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scrape_run_duration_seconds",
		Help:    "Duration of complete scrape runs.",
		Buckets: prometheus.ExponentialBuckets(60, 2, 10),
	})

	citiesScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_cities_completed_total",
		Help: "Cities scraped successfully.",
	})

	citiesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_cities_failed_total",
		Help: "Cities that failed to scrape.",
	})

	venuesScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_venues_total",
		Help: "Venues scraped, by city.",
	}, []string{"city"})
)
