// Package config resolves the launch configuration for the venue scraper.
// Configuration comes from three layers, lowest priority first: built-in
// defaults, an optional YAML file, and a snapshot of the process environment
// taken once at startup. Resolution is pure given the snapshot, so the same
// environment always produces the same launch configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPort is used when PORT is unset or empty.
const DefaultPort = 8080

// Config holds the full venue scraper configuration.
type Config struct {
	// DataDir is created on startup if missing. Relative paths are
	// resolved against the working directory.
	DataDir string `yaml:"data_dir"`

	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	Scraper ScraperConfig `yaml:"scraper"`
}

// ServerConfig configures the HTTP server process.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Workers        int    `yaml:"workers"`
	Threads        int    `yaml:"threads"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LogLevel       string `yaml:"log_level"` // debug, info, warn, error
	AccessLog      string `yaml:"access_log"` // "-" means stdout
	ErrorLog       string `yaml:"error_log"`  // "-" means stderr
}

// BrowserConfig configures the managed Chromium instance.
type BrowserConfig struct {
	// Bin is an explicit browser executable. Empty means: use a browser
	// found on PATH, or download a managed one into BrowsersDir.
	Bin                 string `yaml:"bin"`
	BrowsersDir         string `yaml:"browsers_dir"`
	Headless            bool   `yaml:"headless"`
	ViewportWidth       int    `yaml:"viewport_width"`
	ViewportHeight      int    `yaml:"viewport_height"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
	UserAgent           string `yaml:"user_agent"`
}

// ScraperConfig configures the scraping engine.
type ScraperConfig struct {
	BaseURL                string   `yaml:"base_url"`
	Cities                 []string `yaml:"cities"`
	MaxLoadMoreAttempts    int      `yaml:"max_load_more_attempts"`
	MaxConsecutiveFailures int      `yaml:"max_consecutive_failures"`
	VenueRetries           int      `yaml:"venue_retries"`
	CityDelaySeconds       int      `yaml:"city_delay_seconds"`
}

// DefaultConfig returns a fully populated configuration. Every field has a
// value before any file or environment layer is applied, so the launch
// configuration can never be partially resolved.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           DefaultPort,
			Workers:        1,
			Threads:        4,
			TimeoutSeconds: 300,
			LogLevel:       "info",
			AccessLog:      "-",
			ErrorLog:       "-",
		},
		Browser: BrowserConfig{
			BrowsersDir:         "browsers",
			Headless:            true,
			ViewportWidth:       1920,
			ViewportHeight:      1080,
			NavigationTimeoutMs: 60000,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Scraper: ScraperConfig{
			BaseURL:                "https://www.khelomore.com",
			Cities:                 DefaultCities(),
			MaxLoadMoreAttempts:    50,
			MaxConsecutiveFailures: 5,
			VenueRetries:           3,
			CityDelaySeconds:       10,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Environ is an immutable snapshot of the process environment.
type Environ map[string]string

// Snapshot captures the current process environment once. All resolution
// reads from the snapshot, never from the live environment.
func Snapshot() Environ {
	env := make(Environ)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// ApplyEnv overlays environment overrides onto the configuration and returns
// human-readable warnings for values that fell back to defaults. Invalid
// numeric values are errors: startup must not proceed on a half-understood
// environment.
func (c *Config) ApplyEnv(env Environ) ([]string, error) {
	var warnings []string

	if raw, ok := env["PORT"]; !ok || raw == "" {
		c.Server.Port = DefaultPort
		warnings = append(warnings, fmt.Sprintf("PORT not set, defaulting to %d", DefaultPort))
	} else {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return warnings, fmt.Errorf("invalid PORT %q", raw)
		}
		c.Server.Port = port
	}

	if v, ok := env["HOST"]; ok && v != "" {
		c.Server.Host = v
	}
	if err := intFromEnv(env, "WORKERS", &c.Server.Workers); err != nil {
		return warnings, err
	}
	if err := intFromEnv(env, "THREADS", &c.Server.Threads); err != nil {
		return warnings, err
	}
	if err := intFromEnv(env, "TIMEOUT", &c.Server.TimeoutSeconds); err != nil {
		return warnings, err
	}
	if v, ok := env["LOG_LEVEL"]; ok && v != "" {
		c.Server.LogLevel = strings.ToLower(v)
	}
	if v, ok := env["DATA_DIR"]; ok && v != "" {
		c.DataDir = v
	}
	if v, ok := env["BROWSERS_PATH"]; ok && v != "" {
		c.Browser.BrowsersDir = v
	}
	if v, ok := env["BROWSER_BIN"]; ok && v != "" {
		c.Browser.Bin = v
	}
	if v, ok := env["HEADLESS"]; ok && v != "" {
		c.Browser.Headless = v == "true" || v == "1"
	}

	return warnings, nil
}

func intFromEnv(env Environ, key string, dst *int) error {
	raw, ok := env[key]
	if !ok || raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid %s %q", key, raw)
	}
	*dst = n
	return nil
}

// Validate checks the resolved configuration before handoff.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Server.Port)
	}
	if c.Server.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Server.Workers)
	}
	if c.Server.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Server.Threads)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Server.LogLevel)
	}
	return nil
}

// Bind returns the host:port address the server listens on.
func (c *Config) Bind() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServeArgs renders the resolved configuration into the argument list the
// bootstrap hands to the server process. The configuration exists only to
// become this argv.
func (c *Config) ServeArgs() []string {
	return []string{
		"serve",
		"--host", c.Server.Host,
		"--port", strconv.Itoa(c.Server.Port),
		"--workers", strconv.Itoa(c.Server.Workers),
		"--threads", strconv.Itoa(c.Server.Threads),
		"--timeout", strconv.Itoa(c.Server.TimeoutSeconds),
		"--log-level", c.Server.LogLevel,
		"--access-log", c.Server.AccessLog,
		"--error-log", c.Server.ErrorLog,
		"--data-dir", c.DataDir,
	}
}
