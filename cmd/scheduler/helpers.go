package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rae-systems/scheduler/internal/config"
	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/logger"
	"github.com/rae-systems/scheduler/internal/parser"
	"github.com/rae-systems/scheduler/internal/scheduler"
)

// parseAt parses the --at flag's RFC 3339 timestamp.
func parseAt(s string) (time.Time, error) {
	return parser.ParseTime(s)
}

const envConfigPath = "RAE_SCHEDULER_CONFIG"

// getConfigPath resolves the config file the same way internal/config.Load
// does, but lets the CLI's --config flag take priority over everything,
// and tolerates a config file not existing at all — a bare `scheduler add`
// with no config file anywhere is a valid, if minimal, invocation.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv(envConfigPath); v != "" {
		return v
	}
	if _, err := os.Stat("/etc/rae-scheduler/scheduler.yaml"); err == nil {
		return "/etc/rae-scheduler/scheduler.yaml"
	}
	return "./scheduler.yaml"
}

// loadConfig loads and validates the resolved config file, falling back
// to an all-defaults Config when no file is present at that path at all.
func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	cfg, err := config.LoadWithEnvExpansion(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the scheduler's structured logger from cfg's log level
// and format.
func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Global.LogLevel, cfg.Global.LogFormat)
}

// openScheduler constructs (but does not Start) a Scheduler wired to the
// resolved config's data directory. It is the shared entrypoint for every
// CLI command that only reads or mutates persisted job state — add, list,
// remove, status, enable, disable — none of which need the tick loop,
// monitor, or file watcher goroutines running.
//
// A job added or removed this way is only visible to an already-running
// `scheduler serve` daemon after that daemon restarts: this CLI operates
// directly on the on-disk job store, the same file set the daemon loads
// once at startup, rather than through a live admin API — there is no
// such API in scope.
func openScheduler() (*scheduler.Scheduler, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cfg)
	s, err := scheduler.New(scheduler.Config{
		DataDir:             cfg.Global.DataDir,
		Workers:             cfg.Global.WorkerCount,
		TickInterval:        0,
		HealthCheckInterval: 0,
		Logger:              log,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// exitCode maps a scheduler error to the process exit code spec.md §7
// assigns to it: validation and not-found errors exit 2, everything else
// exits 1. A nil error is never passed here; callers check err != nil
// first.
func exitCode(err error) int {
	if errors.Is(err, job.ErrValidation) || errors.Is(err, job.ErrNotFound) {
		return 2
	}
	return 1
}

// fail prints err to stderr and exits with the code spec.md §7 assigns to
// its kind.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCode(err))
}
