package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"venuescraper/internal/browser"
	"venuescraper/internal/config"
	"venuescraper/internal/store"
)

func newTestScraper(t *testing.T) (*Scraper, *store.Store) {
	t.Helper()

	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	log := zaptest.NewLogger(t)
	mgr := browser.NewManager(cfg.Browser, log)
	return New(cfg.Scraper, cfg.Server.Workers, mgr, db, log), db
}

func TestScraper_SingleRunGuard(t *testing.T) {
	s, _ := newTestScraper(t)

	runID, err := s.begin()
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	require.True(t, s.Running())

	_, err = s.begin()
	require.ErrorIs(t, err, ErrAlreadyRunning)

	// Finishing the run releases the guard.
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	second, err := s.begin()
	require.NoError(t, err)
	require.NotEqual(t, runID, second, "each run gets its own ID")
}

func TestScraper_ProgressAfterEachCity(t *testing.T) {
	s, db := newTestScraper(t)

	_, err := s.begin()
	require.NoError(t, err)

	s.recordCity("pune", []store.Venue{{City: "pune", Name: "Arena One"}}, true)
	s.saveProgress()
	s.recordCity("nagaur", nil, false)
	s.saveProgress()

	p, err := db.LoadProgress()
	require.NoError(t, err)
	require.True(t, p.Running)
	require.Equal(t, []string{"pune"}, p.ScrapedCities)
	require.Equal(t, []string{"nagaur"}, p.FailedCities)
	require.Equal(t, 1, p.TotalVenues)
	require.False(t, p.LastUpdated.IsZero())
}

func TestNew_WorkerFloor(t *testing.T) {
	s, _ := newTestScraper(t)
	require.Equal(t, 1, s.workers)

	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	cfg := config.DefaultConfig()
	log := zaptest.NewLogger(t)
	zeroWorkers := New(cfg.Scraper, 0, browser.NewManager(cfg.Browser, log), db, log)
	require.Equal(t, 1, zeroWorkers.workers)
}
