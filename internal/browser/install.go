package browser

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"

	"venuescraper/internal/config"
)

// ErrNotInstalled is returned when no usable browser binary can be found.
var ErrNotInstalled = errors.New("browser not installed")

// Installed is the dependency presence check. It reports the browser binary
// that would be used, looking at the explicitly configured binary, the
// system PATH, and the managed download directory, in that order. It never
// installs anything.
func Installed(cfg config.BrowserConfig) (string, bool) {
	if cfg.Bin != "" {
		if _, err := os.Stat(cfg.Bin); err == nil {
			return cfg.Bin, true
		}
		return "", false
	}

	if path, ok := launcher.LookPath(); ok {
		return path, true
	}

	b := managedBrowser(cfg)
	if _, err := os.Stat(b.BinPath()); err == nil {
		return b.BinPath(), true
	}
	return "", false
}

// Resolve returns the browser binary path, failing with ErrNotInstalled when
// the presence check does not pass. It never triggers a download; callers
// that want installation run Install first.
func Resolve(cfg config.BrowserConfig) (string, error) {
	if path, ok := Installed(cfg); ok {
		return path, nil
	}
	return "", ErrNotInstalled
}

// Install downloads the managed Chromium revision into the configured
// browsers directory and returns the binary path. Idempotent: an already
// valid download is reused without network access.
func Install(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (string, error) {
	b := managedBrowser(cfg)
	b.Context = ctx
	b.Logger = browserLogger{log: log}

	log.Info("downloading managed chromium",
		zap.Int("revision", b.Revision),
		zap.String("dir", cfg.BrowsersDir))

	path, err := b.Get()
	if err != nil {
		return "", fmt.Errorf("download chromium: %w", err)
	}

	log.Info("chromium ready", zap.String("bin", path))
	return path, nil
}

func managedBrowser(cfg config.BrowserConfig) *launcher.Browser {
	b := launcher.NewBrowser()
	if cfg.BrowsersDir != "" {
		b.RootDir = cfg.BrowsersDir
	}
	return b
}

// browserLogger adapts zap to the launcher's download progress logger.
type browserLogger struct {
	log *zap.Logger
}

func (l browserLogger) Println(v ...interface{}) {
	l.log.Debug(fmt.Sprint(v...))
}
