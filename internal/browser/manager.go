// Package browser owns the managed headless Chromium instance used by the
// venue scraper. It launches the browser with the hardening flags required
// in container deployments and hands out pages preconfigured with the
// scraping viewport and user agent.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"venuescraper/internal/config"
)

// hardeningFlags are passed to Chromium on every launch. They match what
// container platforms need to run Chromium without a privileged sandbox or
// /dev/shm.
var hardeningFlags = []string{
	"disable-dev-shm-usage",
	"disable-gpu",
	"disable-extensions",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
}

// Manager owns the browser process and its DevTools connection.
type Manager struct {
	cfg config.BrowserConfig
	log *zap.Logger

	mu         sync.Mutex
	launch     *launcher.Launcher
	browser    *rod.Browser
	controlURL string
}

// NewManager creates a manager. The browser is not launched until Start.
func NewManager(cfg config.BrowserConfig, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// NavigationTimeout returns the per-navigation timeout.
func (m *Manager) NavigationTimeout() time.Duration {
	if m.cfg.NavigationTimeoutMs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.cfg.NavigationTimeoutMs) * time.Millisecond
}

// Start launches Chromium and connects to it. Safe to call repeatedly: a
// healthy browser is reused, a stale connection is torn down and relaunched.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.log.Warn("stale browser connection, relaunching")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
	}

	bin, err := Resolve(m.cfg)
	if err != nil {
		return fmt.Errorf("resolve browser binary: %w", err)
	}

	launch := launcher.New().
		Bin(bin).
		Headless(m.cfg.Headless).
		NoSandbox(true)
	for _, f := range hardeningFlags {
		launch = launch.Set(flags.Flag(f))
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		launch.Cleanup()
		return fmt.Errorf("connect to chromium: %w", err)
	}

	m.launch = launch
	m.browser = b
	m.controlURL = controlURL
	m.log.Info("browser started", zap.String("bin", bin), zap.Bool("headless", m.cfg.Headless))
	return nil
}

// ControlURL returns the DevTools WebSocket URL.
func (m *Manager) ControlURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controlURL
}

// IsConnected reports whether a browser is attached.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// NewPage opens a blank page with the scraping viewport and user agent
// applied. The caller owns the page and must Close it.
func (m *Manager) NewPage(ctx context.Context) (*rod.Page, error) {
	if err := m.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.ViewportWidth,
		Height:            m.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.log.Warn("set viewport failed", zap.Error(err))
	}

	if m.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: m.cfg.UserAgent,
		}); err != nil {
			m.log.Warn("set user agent failed", zap.Error(err))
		}
	}

	return page, nil
}

// Shutdown closes the browser and its Chromium process.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.launch != nil {
		m.launch.Cleanup()
		m.launch = nil
	}
	m.controlURL = ""
	return err
}
