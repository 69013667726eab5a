package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig_FullyPopulated(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.Server.Workers <= 0 || cfg.Server.Threads <= 0 || cfg.Server.TimeoutSeconds <= 0 {
		t.Errorf("worker/thread/timeout defaults must be positive: %+v", cfg.Server)
	}
	if cfg.DataDir == "" {
		t.Error("data dir default must not be empty")
	}
	if len(cfg.Scraper.Cities) == 0 {
		t.Error("default city list must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestApplyEnv_PortPassthrough(t *testing.T) {
	cfg := DefaultConfig()
	warnings, err := cfg.ApplyEnv(Environ{"PORT": "3000"})
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	for _, w := range warnings {
		if strings.Contains(w, "PORT") {
			t.Errorf("unexpected PORT warning: %q", w)
		}
	}
}

func TestApplyEnv_PortDefault(t *testing.T) {
	for name, env := range map[string]Environ{
		"unset": {},
		"empty": {"PORT": ""},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			warnings, err := cfg.ApplyEnv(env)
			if err != nil {
				t.Fatalf("ApplyEnv failed: %v", err)
			}
			if cfg.Server.Port != DefaultPort {
				t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Server.Port)
			}
			found := false
			for _, w := range warnings {
				if strings.Contains(w, "PORT") {
					found = true
				}
			}
			if !found {
				t.Error("expected a warning when PORT falls back to the default")
			}
		})
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for _, env := range []Environ{
		{"PORT": "not-a-number"},
		{"PORT": "-1"},
		{"PORT": "0"},
		{"WORKERS": "zero"},
		{"THREADS": "-2"},
	} {
		cfg := DefaultConfig()
		if _, err := cfg.ApplyEnv(env); err == nil {
			t.Errorf("expected error for env %v", env)
		}
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.ApplyEnv(Environ{
		"PORT":          "9090",
		"HOST":          "127.0.0.1",
		"WORKERS":       "4",
		"THREADS":       "8",
		"TIMEOUT":       "120",
		"LOG_LEVEL":     "DEBUG",
		"DATA_DIR":      "/var/lib/scraper",
		"BROWSERS_PATH": "/opt/browsers",
		"HEADLESS":      "false",
	})
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("bind overrides not applied: %s", cfg.Bind())
	}
	if cfg.Server.Workers != 4 || cfg.Server.Threads != 8 || cfg.Server.TimeoutSeconds != 120 {
		t.Errorf("server overrides not applied: %+v", cfg.Server)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("log level should be normalized to lowercase, got %q", cfg.Server.LogLevel)
	}
	if cfg.DataDir != "/var/lib/scraper" {
		t.Errorf("data dir override not applied: %s", cfg.DataDir)
	}
	if cfg.Browser.BrowsersDir != "/opt/browsers" {
		t.Errorf("browsers dir override not applied: %s", cfg.Browser.BrowsersDir)
	}
	if cfg.Browser.Headless {
		t.Error("headless override not applied")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Scraper.Cities = []string{"pune", "mumbai"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("missing file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero workers", func(c *Config) { c.Server.Workers = 0 }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestServeArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 3000
	cfg.Server.Workers = 2

	args := cfg.ServeArgs()
	if args[0] != "serve" {
		t.Fatalf("argv must start with the serve command, got %q", args[0])
	}

	got := strings.Join(args, " ")
	for _, want := range []string{"--port 3000", "--workers 2", "--host 0.0.0.0", "--log-level info"} {
		if !strings.Contains(got, want) {
			t.Errorf("argv missing %q: %s", want, got)
		}
	}
}
