package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"venuescraper/internal/config"
	"venuescraper/internal/scraper"
	"venuescraper/internal/store"
)

// fakeRunner stands in for the scraper.
type fakeRunner struct {
	running bool
	started int
}

func (f *fakeRunner) Running() bool { return f.running }

func (f *fakeRunner) StartBackground(ctx context.Context) (string, error) {
	if f.running {
		return "", scraper.ErrAlreadyRunning
	}
	f.running = true
	f.started++
	return "test-run", nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *fakeRunner) {
	t.Helper()

	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := &fakeRunner{}
	srv := New(config.DefaultConfig(), zaptest.NewLogger(t), db, runner)
	return srv, db, runner
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Venue Scraper")
	require.Contains(t, rec.Body.String(), "Cities to scrape: 42")
}

func TestStartScraping(t *testing.T) {
	srv, _, runner := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/start_scraping")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "test-run", body["run_id"])
	require.Equal(t, 1, runner.started)

	// Second request while running conflicts.
	rec = doRequest(t, srv, http.MethodPost, "/start_scraping")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, runner.started)
}

func TestStatus_BeforeFirstRun(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var p store.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.False(t, p.Running)
	require.Zero(t, p.TotalVenues)
	require.Empty(t, p.ScrapedCities)
}

func TestStatus_ReflectsProgress(t *testing.T) {
	srv, db, runner := newTestServer(t)
	runner.running = true

	require.NoError(t, db.SaveProgress(store.Progress{
		RunID:         "run-7",
		ScrapedCities: []string{"pune"},
		FailedCities:  []string{},
		TotalVenues:   12,
		LastUpdated:   time.Now(),
	}))

	rec := doRequest(t, srv, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var p store.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.True(t, p.Running, "running flag comes from the runner, not the snapshot")
	require.Equal(t, 12, p.TotalVenues)
	require.Equal(t, []string{"pune"}, p.ScrapedCities)
}

func TestDownload_NoData(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/download/venues.csv", "/download/venues.json"} {
		rec := doRequest(t, srv, http.MethodGet, path)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestDownloadCSV(t *testing.T) {
	srv, db, _ := newTestServer(t)

	require.NoError(t, db.InsertVenues(context.Background(), []store.Venue{{
		City:      "pune",
		Name:      "Arena One",
		Price:     "Rs. 500 onwards",
		ScrapedAt: time.Now(),
	}}))

	rec := doRequest(t, srv, http.MethodGet, "/download/venues.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "venues.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Arena One", records[1][1])
}

func TestDownloadJSON(t *testing.T) {
	srv, db, _ := newTestServer(t)

	require.NoError(t, db.InsertVenues(context.Background(), []store.Venue{{
		City: "kochi", Name: "Backwater Arena", ScrapedAt: time.Now(),
	}}))

	rec := doRequest(t, srv, http.MethodGet, "/download/venues.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var venues []store.Venue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &venues))
	require.Len(t, venues, 1)
	require.Equal(t, "kochi", venues[0].City)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// Generate some traffic first.
	doRequest(t, srv, http.MethodGet, "/healthz")

	rec := doRequest(t, srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestRun_GracefulShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.cfg.Server.Host = "127.0.0.1"
	srv.cfg.Server.Port = 0 // let Run fail fast or bind an ephemeral port

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
