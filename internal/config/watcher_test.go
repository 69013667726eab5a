package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))

	var mu sync.Mutex
	var got *Config
	w, err := NewWatcher(path, func(c *Config) {
		mu.Lock()
		got = c
		mu.Unlock()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	cfg.Server.LogLevel = "debug"
	require.NoError(t, cfg.Save(path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Server.LogLevel == "debug"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(*Config) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
