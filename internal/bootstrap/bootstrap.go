// Package bootstrap brings the runtime environment to a ready state and
// hands control to the server process. The sequence is strictly linear:
// ensure the browser dependency, ensure the data directory, validate the
// resolved configuration, then replace the process with the server. Any
// failure aborts startup; there are no retries and no partial-start state.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"venuescraper/internal/browser"
	"venuescraper/internal/config"
)

// Installer is the browser dependency: a presence check and an install step.
type Installer interface {
	// Installed reports whether the dependency is already present.
	Installed() (string, bool)
	// Install makes the dependency present. Called only when Installed
	// reported false.
	Install(ctx context.Context) (string, error)
}

// ExecFunc replaces the current process. It does not return on success.
type ExecFunc func(argv0 string, argv []string, env []string) error

// Sequence is the bootstrap state: configuration, dependency installer, and
// the process-replacement primitive. The exec function is injectable so the
// handoff contract can be tested without losing the test process.
type Sequence struct {
	cfg       *config.Config
	log       *zap.Logger
	installer Installer
	execFn    ExecFunc
}

// Option customizes a Sequence.
type Option func(*Sequence)

// WithInstaller substitutes the browser installer.
func WithInstaller(in Installer) Option {
	return func(s *Sequence) { s.installer = in }
}

// WithExecFunc substitutes the process-replacement primitive.
func WithExecFunc(fn ExecFunc) Option {
	return func(s *Sequence) { s.execFn = fn }
}

// New creates a bootstrap sequence for the resolved configuration.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Sequence {
	s := &Sequence{
		cfg:       cfg,
		log:       log,
		installer: &browserInstaller{cfg: cfg.Browser, log: log},
		execFn:    replaceProcess,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the bootstrap steps up to, but not including, the handoff.
func (s *Sequence) Run(ctx context.Context) error {
	if err := s.EnsureBrowser(ctx); err != nil {
		return err
	}
	if err := EnsureDataDir(s.cfg.DataDir); err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("launch configuration invalid: %w", err)
	}
	return nil
}

// EnsureBrowser runs the dependency presence check and, only when it fails,
// the install step. The server must never start without the browser: the
// scraped application depends on it at runtime, so install failures are
// fatal to startup.
func (s *Sequence) EnsureBrowser(ctx context.Context) error {
	if path, ok := s.installer.Installed(); ok {
		s.log.Info("browser already installed", zap.String("bin", path))
		return nil
	}

	s.log.Info("browser not found, installing")
	path, err := s.installer.Install(ctx)
	if err != nil {
		return fmt.Errorf("install browser: %w", err)
	}
	s.log.Info("browser installed", zap.String("bin", path))
	return nil
}

// EnsureDataDir creates the data directory including parents. Idempotent:
// an existing directory is not an error.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

// Handoff replaces the current process with the server process, passing the
// resolved configuration as its argument list. It is a one-way transition:
// on success nothing after it runs in this process.
func (s *Sequence) Handoff() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	argv := append([]string{exe}, s.cfg.ServeArgs()...)
	env := handoffEnv(os.Environ(), s.cfg)

	s.log.Info("handing off to server process",
		zap.String("bind", s.cfg.Bind()),
		zap.Strings("argv", argv))
	_ = s.log.Sync()

	if err := s.execFn(exe, argv, env); err != nil {
		return fmt.Errorf("exec server: %w", err)
	}
	return nil
}

// handoffEnv returns the environment for the server process. The resolver
// treats the environment as read-only except for the keys it resolved: those
// are pinned so the child observes exactly the values the launch
// configuration was computed from.
func handoffEnv(base []string, cfg *config.Config) []string {
	pinned := map[string]string{
		"PORT":          fmt.Sprintf("%d", cfg.Server.Port),
		"DATA_DIR":      cfg.DataDir,
		"BROWSERS_PATH": cfg.Browser.BrowsersDir,
	}

	env := make([]string, 0, len(base)+len(pinned))
	for _, kv := range base {
		skip := false
		for k := range pinned {
			if len(kv) > len(k) && kv[:len(k)+1] == k+"=" {
				skip = true
				break
			}
		}
		if !skip {
			env = append(env, kv)
		}
	}
	for k, v := range pinned {
		env = append(env, k+"="+v)
	}
	return env
}

// browserInstaller adapts the browser package to the Installer interface.
type browserInstaller struct {
	cfg config.BrowserConfig
	log *zap.Logger
}

func (b *browserInstaller) Installed() (string, bool) {
	return browser.Installed(b.cfg)
}

func (b *browserInstaller) Install(ctx context.Context) (string, error) {
	return browser.Install(ctx, b.cfg, b.log)
}
