// Package scraper implements the venue scraping engine: it walks the venue
// listing for each configured city, expands the lazily loaded list, visits
// every venue page, and persists the extracted records.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venuescraper/internal/browser"
	"venuescraper/internal/config"
	"venuescraper/internal/store"
)

// ErrAlreadyRunning is returned when a scrape run is requested while one is
// still in flight. There is at most one run per process.
var ErrAlreadyRunning = errors.New("scrape run already in progress")

// venueListXPath matches the venue cards on a city listing page.
const venueListXPath = "//*[@id='root']/div/div/div/div/div[2]/div[2]/div[2]/div"

// loadMoreXPath is the site's load-more button. When it is not found the
// fallback selectors below are tried in order.
const loadMoreXPath = "//*[@id='root']/div/div/div/div/div[2]/div[2]/div[2]/div[21]/div"

var loadMoreFallbacks = []string{
	"[class*='load-more']",
	"[class*='loadmore']",
	"button[class*='load']",
	"div[class*='load']",
}

// Scraper drives the browser across the configured cities and writes venues
// to the store. Safe for concurrent use; a single run executes at a time.
type Scraper struct {
	cfg     config.ScraperConfig
	workers int
	mgr     *browser.Manager
	db      *store.Store
	log     *zap.Logger

	mu      sync.Mutex
	running bool
	runID   string
	scraped []string
	failed  []string
	total   int
}

// New creates a scraper. workers bounds how many cities are scraped in
// parallel; the original deployment tunes this between 1 and 4.
func New(cfg config.ScraperConfig, workers int, mgr *browser.Manager, db *store.Store, log *zap.Logger) *Scraper {
	if workers <= 0 {
		workers = 1
	}
	return &Scraper{
		cfg:     cfg,
		workers: workers,
		mgr:     mgr,
		db:      db,
		log:     log,
	}
}

// Running reports whether a run is in flight.
func (s *Scraper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run scrapes all configured cities, blocking until the run completes.
func (s *Scraper) Run(ctx context.Context) error {
	runID, err := s.begin()
	if err != nil {
		return err
	}
	return s.run(ctx, runID)
}

// StartBackground launches a run in a new goroutine and returns its ID.
func (s *Scraper) StartBackground(ctx context.Context) (string, error) {
	runID, err := s.begin()
	if err != nil {
		return "", err
	}
	go func() {
		if err := s.run(ctx, runID); err != nil {
			s.log.Error("scrape run failed", zap.String("run_id", runID), zap.Error(err))
		}
	}()
	return runID, nil
}

func (s *Scraper) begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrAlreadyRunning
	}
	s.running = true
	s.runID = uuid.NewString()
	s.scraped = nil
	s.failed = nil
	s.total = 0
	return s.runID, nil
}

func (s *Scraper) run(ctx context.Context, runID string) error {
	start := time.Now()
	scrapeRuns.Inc()
	defer func() {
		scrapeRunDuration.Observe(time.Since(start).Seconds())
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.saveProgress()
	}()

	s.log.Info("scrape run started",
		zap.String("run_id", runID),
		zap.Int("cities", len(s.cfg.Cities)),
		zap.Int("workers", s.workers))

	if err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, city := range s.cfg.Cities {
		g.Go(func() error {
			venues, err := s.scrapeCity(gctx, city)
			if err != nil {
				// A failed city never aborts the run.
				s.log.Error("city failed", zap.String("city", city), zap.Error(err))
				citiesFailed.Inc()
				s.recordCity(city, nil, false)
			} else {
				citiesScraped.Inc()
				venuesScraped.WithLabelValues(city).Add(float64(len(venues)))
				if err := s.db.InsertVenues(gctx, venues); err != nil {
					s.log.Error("persist venues failed", zap.String("city", city), zap.Error(err))
				}
				s.recordCity(city, venues, true)
			}
			s.saveProgress()

			// Pause between cities to avoid rate limiting.
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-time.After(time.Duration(s.cfg.CityDelaySeconds) * time.Second):
			}
			return nil
		})
	}

	err := g.Wait()

	s.mu.Lock()
	s.log.Info("scrape run completed",
		zap.String("run_id", runID),
		zap.Int("total_venues", s.total),
		zap.Int("scraped_cities", len(s.scraped)),
		zap.Int("failed_cities", len(s.failed)))
	s.mu.Unlock()

	return err
}

func (s *Scraper) recordCity(city string, venues []store.Venue, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.scraped = append(s.scraped, city)
		s.total += len(venues)
	} else {
		s.failed = append(s.failed, city)
	}
}

func (s *Scraper) saveProgress() {
	s.mu.Lock()
	p := store.Progress{
		RunID:         s.runID,
		Running:       s.running,
		ScrapedCities: append([]string{}, s.scraped...),
		FailedCities:  append([]string{}, s.failed...),
		TotalVenues:   s.total,
		LastUpdated:   time.Now(),
	}
	s.mu.Unlock()

	if err := s.db.SaveProgress(p); err != nil {
		s.log.Warn("save progress failed", zap.Error(err))
	}
}

// scrapeCity scrapes every venue in one city listing.
func (s *Scraper) scrapeCity(ctx context.Context, city string) ([]store.Venue, error) {
	url := CityURL(s.cfg.BaseURL, city)
	s.log.Info("scraping city", zap.String("city", city), zap.String("url", url))

	page, err := s.mgr.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Timeout(s.mgr.NavigationTimeout()).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	sleep(ctx, 5*time.Second)

	total, err := s.loadAllVenues(ctx, page)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		s.log.Warn("no venues found", zap.String("city", city))
		return nil, nil
	}

	var venues []store.Venue
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return venues, err
		}

		venue, ok := s.scrapeVenueWithRetry(ctx, page, city, i, total)
		if ok {
			venues = append(venues, venue)
		}
	}

	s.log.Info("city completed", zap.String("city", city), zap.Int("venues", len(venues)))
	return venues, nil
}

// loadAllVenues clicks through the lazy list until no new cards appear.
// Gives up after the configured attempt cap or enough consecutive misses.
func (s *Scraper) loadAllVenues(ctx context.Context, page *rod.Page) (int, error) {
	attempts := 0
	consecutiveFailures := 0

	for attempts < s.cfg.MaxLoadMoreAttempts && consecutiveFailures < s.cfg.MaxConsecutiveFailures {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		_ = page.WaitIdle(10 * time.Second)
		sleep(ctx, 2*time.Second)

		current, err := page.ElementsX(venueListXPath)
		if err != nil {
			return 0, fmt.Errorf("query venue list: %w", err)
		}
		currentCount := len(current)
		s.log.Debug("venues loaded so far", zap.Int("count", currentCount))

		// Scroll to the bottom to trigger lazy loading.
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			s.log.Debug("scroll failed", zap.Error(err))
		}
		sleep(ctx, 3*time.Second)

		if s.clickLoadMore(page) {
			consecutiveFailures = 0
			_ = page.WaitIdle(15 * time.Second)
			sleep(ctx, 3*time.Second)

			after, err := page.ElementsX(venueListXPath)
			if err == nil && len(after) > currentCount {
				s.log.Debug("loaded more venues", zap.Int("new", len(after)-currentCount))
			} else {
				consecutiveFailures++
			}
		} else {
			consecutiveFailures++
			sleep(ctx, 5*time.Second)

			after, err := page.ElementsX(venueListXPath)
			if err == nil && len(after) == currentCount {
				// List is stable and there is nothing left to click.
				break
			}
		}

		attempts++
	}

	final, err := page.ElementsX(venueListXPath)
	if err != nil {
		return 0, fmt.Errorf("final venue count: %w", err)
	}
	s.log.Info("venue list fully loaded", zap.Int("count", len(final)))
	return len(final), nil
}

// clickLoadMore tries the site's load-more button, then text-matched
// buttons, then class-based fallbacks.
func (s *Scraper) clickLoadMore(page *rod.Page) bool {
	if el, err := page.Timeout(5 * time.Second).ElementX(loadMoreXPath); err == nil {
		if safeClick(el.CancelTimeout()) {
			return true
		}
	}
	for _, tag := range []string{"button", "div"} {
		el, err := page.Timeout(3 * time.Second).ElementR(tag, "/load more/i")
		if err != nil {
			continue
		}
		if safeClick(el.CancelTimeout()) {
			return true
		}
	}
	for _, sel := range loadMoreFallbacks {
		el, err := page.Timeout(3 * time.Second).Element(sel)
		if err != nil {
			continue
		}
		if safeClick(el.CancelTimeout()) {
			return true
		}
	}
	return false
}

// scrapeVenueWithRetry opens the i-th venue card, extracts its record, and
// navigates back. Each venue gets the configured number of attempts; a venue
// that keeps failing is skipped rather than failing the city.
func (s *Scraper) scrapeVenueWithRetry(ctx context.Context, page *rod.Page, city string, index, total int) (store.Venue, bool) {
	for attempt := 1; attempt <= s.cfg.VenueRetries; attempt++ {
		if ctx.Err() != nil {
			return store.Venue{}, false
		}

		venue, err := s.scrapeVenue(ctx, page, city, index, total)
		if err == nil {
			return venue, true
		}

		s.log.Warn("venue scrape attempt failed",
			zap.String("city", city),
			zap.Int("venue", index+1),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < s.cfg.VenueRetries {
			// Try to get back to the listing before retrying.
			_ = page.NavigateBack()
			_ = page.WaitLoad()
			sleep(ctx, 3*time.Second)
		}
	}
	s.log.Error("venue skipped after retries",
		zap.String("city", city), zap.Int("venue", index+1))
	return store.Venue{}, false
}

func (s *Scraper) scrapeVenue(ctx context.Context, page *rod.Page, city string, index, total int) (store.Venue, error) {
	s.log.Debug("processing venue",
		zap.String("city", city),
		zap.Int("index", index+1),
		zap.Int("total", total))

	// Re-query the list each time: going back invalidates old element handles.
	cards, err := page.ElementsX(venueListXPath)
	if err != nil {
		return store.Venue{}, fmt.Errorf("query venue cards: %w", err)
	}
	if index >= len(cards) {
		return store.Venue{}, fmt.Errorf("venue %d out of range (%d cards)", index+1, len(cards))
	}

	card := cards[index]
	if err := card.ScrollIntoView(); err != nil {
		return store.Venue{}, fmt.Errorf("scroll to venue: %w", err)
	}
	sleep(ctx, time.Second)
	if !safeClick(card) {
		return store.Venue{}, fmt.Errorf("click venue %d", index+1)
	}

	if err := page.WaitLoad(); err != nil {
		return store.Venue{}, fmt.Errorf("wait venue page: %w", err)
	}
	sleep(ctx, 3*time.Second)

	venue := s.extractVenue(ctx, page)
	venue.City = city
	venue.ScrapedAt = time.Now()

	if err := page.NavigateBack(); err != nil {
		return venue, fmt.Errorf("navigate back: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return venue, fmt.Errorf("wait listing: %w", err)
	}
	sleep(ctx, 3*time.Second)

	s.log.Info("venue scraped", zap.String("city", city), zap.String("name", venue.Name))
	return venue, nil
}

// safeClick scrolls an element into view and clicks it, swallowing errors.
func safeClick(el *rod.Element) bool {
	if visible, err := el.Visible(); err != nil || !visible {
		return false
	}
	if err := el.ScrollIntoView(); err != nil {
		return false
	}
	time.Sleep(time.Second)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
