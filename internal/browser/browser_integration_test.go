//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"venuescraper/internal/browser"
	"venuescraper/internal/config"
)

// Requires a local Chromium. Run with: go test -tags integration ./internal/browser/...
func TestManager_PageLifecycle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "<html><body><h1>Venues</h1></body></html>")
	}))
	defer ts.Close()

	cfg := config.DefaultConfig().Browser
	cfg.Headless = true
	cfg.NavigationTimeoutMs = 10000

	m := browser.NewManager(cfg, zaptest.NewLogger(t))
	defer func() {
		if err := m.Shutdown(); err != nil {
			t.Logf("shutdown error: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, m.Start(ctx))
	require.True(t, m.IsConnected())
	require.NotEmpty(t, m.ControlURL())

	page, err := m.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Timeout(m.NavigationTimeout()).Navigate(ts.URL))
	require.NoError(t, page.WaitLoad())

	el, err := page.Element("h1")
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)
	require.Equal(t, "Venues", text)

	// Start again on a live browser must be a no-op.
	require.NoError(t, m.Start(ctx))
}
