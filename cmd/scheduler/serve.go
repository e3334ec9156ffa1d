package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/config"
	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/logger"
	"github.com/rae-systems/scheduler/internal/metrics"
	"github.com/rae-systems/scheduler/internal/scheduler"
	"github.com/rae-systems/scheduler/internal/tracing"
)

var serveDryRun bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon",
	Long: `Serve runs the scheduler's tick loop, background monitor, and file
watcher for as long as the process lives — it is the only way persisted
jobs actually get dispatched. It also starts the optional Prometheus
metrics endpoint and OpenTelemetry tracing exporter, per the config
file's global section.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Validate configuration and bootstrap jobs without starting the daemon")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	log.Info("scheduler starting",
		"version", version,
		"pid", os.Getpid(),
		"data_dir", cfg.Global.DataDir,
		"workers", cfg.Global.WorkerCount,
	)

	if serveDryRun {
		fmt.Println("configuration OK")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingProvider, err := tracing.NewProvider(ctx, tracing.TracerConfig{
		Enabled:     cfg.Global.Tracing.Enabled,
		Exporter:    cfg.Global.Tracing.Exporter,
		Endpoint:    cfg.Global.Tracing.Endpoint,
		SampleRate:  cfg.Global.Tracing.SampleRate,
		ServiceName: cfg.Global.Tracing.ServiceName,
		Version:     version,
		UseTLS:      cfg.Global.Tracing.UseTLS,
	}, log)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown error", "error", err)
		}
	}()

	s, err := scheduler.New(scheduler.Config{
		DataDir:             cfg.Global.DataDir,
		Workers:             cfg.Global.WorkerCount,
		TickInterval:        time.Duration(cfg.Global.TickInterval) * time.Second,
		HealthCheckInterval: time.Duration(cfg.Global.HealthCheckInterval) * time.Second,
		Logger:              log,
	})
	if err != nil {
		log.Error("failed to construct scheduler", "error", err)
		os.Exit(1)
	}

	if err := seedBootstrapJobs(s, cfg.Jobs, log); err != nil {
		log.Error("failed to seed bootstrap jobs", "error", err)
		os.Exit(1)
	}

	var metricsServer *metrics.Server
	if cfg.Global.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.Global.MetricsPort, cfg.Global.MetricsPath, log)
		if err := metricsServer.Start(ctx); err != nil {
			log.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
	}

	if err := s.Start(ctx); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	log.Info("shutdown signal received", "signal", sig)

	s.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown error", "error", err)
		}
	}
	log.Info("scheduler stopped")
}

// seedBootstrapJobs adds every job declared in the config's jobs: section
// into the store, but only on a completely empty store — an already
// populated store means some prior run already seeded (or the operator
// is managing jobs via the CLI directly), and re-seeding would either
// duplicate work or silently resurrect a deliberately removed job.
func seedBootstrapJobs(s *scheduler.Scheduler, defs map[string]*config.JobDef, log *slog.Logger) error {
	if len(defs) == 0 {
		return nil
	}
	existing, err := s.ListJobs()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for name, def := range defs {
		j, err := buildJobFromDef(name, def)
		if err != nil {
			return fmt.Errorf("bootstrap job %q: %w", name, err)
		}
		if _, err := s.AddJob(j); err != nil {
			return fmt.Errorf("bootstrap job %q: %w", name, err)
		}
		log.Info("seeded bootstrap job", "name", name, "job_id", j.ID)
	}
	return nil
}

func buildJobFromDef(name string, def *config.JobDef) (*job.Job, error) {
	j := job.New(name, def.Command)
	j.Description = def.Description
	j.Args = def.Args
	j.WorkingDir = def.WorkingDir
	j.Env = def.Env

	if def.Priority != "" {
		priority, err := job.ParsePriority(def.Priority)
		if err != nil {
			return nil, err
		}
		j.Priority = priority
	}
	if def.Enabled != nil {
		j.Enabled = *def.Enabled
	}
	if def.MaxAttempts > 0 {
		j.RetryPolicy.MaxAttempts = def.MaxAttempts
	}
	if def.DelaySeconds > 0 {
		j.RetryPolicy.DelaySeconds = def.DelaySeconds
	}
	if def.MaxDelaySeconds > 0 {
		maxDelay := def.MaxDelaySeconds
		j.RetryPolicy.MaxDelaySeconds = &maxDelay
	}

	sched := job.Schedule{Cron: def.Cron, Timezone: def.Timezone}
	if def.At != "" {
		at, err := parseAt(def.At)
		if err != nil {
			return nil, err
		}
		sched.At = &at
	}
	j.Schedule = sched

	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}
