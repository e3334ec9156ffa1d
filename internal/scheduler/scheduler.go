// Package scheduler is the facade from spec.md §4.7: it wires the
// parser, queue, store, executor, and monitor together into a single
// cross-platform job scheduler and drives the 1Hz tick loop that moves
// due jobs from the queue into the executor.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rae-systems/scheduler/internal/executor"
	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/metrics"
	"github.com/rae-systems/scheduler/internal/monitor"
	"github.com/rae-systems/scheduler/internal/parser"
	"github.com/rae-systems/scheduler/internal/queue"
	"github.com/rae-systems/scheduler/internal/store"
	"github.com/rae-systems/scheduler/internal/watcher"
)

const defaultTickInterval = 1 * time.Second

// Info pairs a job with its current status, mirroring the JobInfo the
// original scheduler returns from list_jobs.
type Info struct {
	Job    *job.Job
	Status job.Status
}

// Scheduler is the top-level facade the CLI and any embedding program
// talk to. It owns no state of its own beyond what's needed to run the
// tick loop; everything else lives in its components.
type Scheduler struct {
	queue    *queue.Queue
	store    *store.Store
	executor *executor.Executor
	monitor  *monitor.Monitor
	watcher  *watcher.Watcher
	logger   *slog.Logger

	tickInterval time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Config bundles the few construction knobs callers actually need to
// vary; everything else mirrors sane teacher-style defaults.
type Config struct {
	DataDir      string
	Workers      int
	TickInterval time.Duration
	HealthCheckInterval time.Duration
	Logger       *slog.Logger
}

// New builds a Scheduler without starting anything. Call Start to
// launch the executor, monitor, and tick loop and to replay persisted
// jobs from the store.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.DataDir == "" {
		dir, err := store.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	st, err := store.New(cfg.DataDir, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Scheduler{
		queue:        queue.New(),
		store:        st,
		monitor:      monitor.New(cfg.HealthCheckInterval, cfg.Logger),
		tickInterval: cfg.TickInterval,
		logger:       cfg.Logger.With("component", "scheduler"),
	}
	s.executor = executor.New(cfg.Workers, cfg.Logger, s.handleResult)

	w, err := watcher.New(watcher.Config{
		Handler: s.handleFileEvent,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	s.watcher = w
	return s, nil
}

// handleFileEvent is the watcher's TriggerHandler: a matching filesystem
// event fires the job the same way a manual trigger would.
func (s *Scheduler) handleFileEvent(id job.ID, event job.EventType, path string) {
	s.logger.Info("file event fired job", "job_id", id, "event", event, "path", path)
	if err := s.TriggerJob(id); err != nil {
		s.logger.Error("failed to trigger job from file event", "job_id", id, "error", err)
	}
}

// handleResult is the executor's ResultHandler: it folds a completed
// attempt into the monitor's tracked health and, on a terminal outcome,
// re-enqueues the job for its next occurrence.
func (s *Scheduler) handleResult(j *job.Job, result *job.Result) {
	_ = s.monitor.UpdateJobStatus(j.ID, result.Status)
	if result.EndedAt != nil {
		s.monitor.RecordDuration(j.ID, result.EndedAt.Sub(result.StartedAt))
	}

	// An intermediate failed attempt still has retries left in the
	// executor's own loop (runWithRetries) and must not be rescheduled
	// here — that would race the retry it's about to run on its own.
	// Only a terminal Failed (attempts exhausted) re-derives the next
	// occurrence, the same as Completed/Cancelled: per spec.md §4.8 the
	// facade resets to Scheduled after any terminal state, and a cron
	// job must keep producing a strictly increasing next_execution even
	// when every attempt fails.
	if result.Status == job.StatusFailed && result.Attempt < j.RetryPolicy.MaxAttempts {
		metrics.RecordJobRetry(j.Name)
		return
	}

	j.Touch()
	if err := s.store.SaveJob(j); err != nil {
		s.logger.Error("failed to persist job after run", "job_id", j.ID, "error", err)
	}
	if err := s.queue.UpdateJob(j); err != nil {
		s.logger.Error("failed to reschedule job after run", "job_id", j.ID, "error", err)
	}
	s.recordQueueDepth()
	s.recordNextRun(j)
}

// recordQueueDepth publishes the queue's current length to Prometheus.
func (s *Scheduler) recordQueueDepth() {
	metrics.SetQueueDepth(s.queue.Len())
}

// recordNextRun publishes j's next predictable occurrence, when one
// exists — event/pattern-triggered jobs have no fixed next time to
// report.
func (s *Scheduler) recordNextRun(j *job.Job) {
	next, err := parser.NextExecution(j.Schedule, time.Now().UTC())
	if err != nil || next == nil {
		return
	}
	metrics.RecordJobNextRun(j.Name, float64(next.Unix()))
}

// AddJob validates, persists, and enqueues a new job, starting its
// tracking in the monitor. If persistence succeeds but enqueueing
// fails, the persisted file is removed — a compensating action per
// spec.md §4.7, since there should never be a persisted job absent from
// the queue.
func (s *Scheduler) AddJob(j *job.Job) (job.ID, error) {
	if err := j.Validate(); err != nil {
		return "", err
	}
	if err := s.store.SaveJob(j); err != nil {
		return "", err
	}
	if err := s.queue.AddJob(j); err != nil {
		_ = s.store.DeleteJob(j.ID)
		return "", err
	}
	s.monitor.TrackJob(j.ID)
	if err := s.watcher.RegisterJob(j); err != nil {
		s.logger.Warn("failed to register job with file watcher", "job_id", j.ID, "error", err)
	}
	s.recordQueueDepth()
	s.recordNextRun(j)
	s.logger.Info("job added", "job_id", j.ID, "command", j.Command)
	return j.ID, nil
}

// RemoveJob removes a job from the queue, persistence, and monitoring.
func (s *Scheduler) RemoveJob(id job.ID) error {
	if err := s.queue.RemoveJob(id); err != nil {
		return err
	}
	if err := s.store.DeleteJob(id); err != nil {
		return err
	}
	s.monitor.UntrackJob(id)
	s.watcher.UnregisterJob(id)
	s.recordQueueDepth()
	s.logger.Info("job removed", "job_id", id)
	return nil
}

// GetJobStatus returns the monitor's tracked status for id.
func (s *Scheduler) GetJobStatus(id job.ID) (job.Status, error) {
	return s.monitor.GetJobStatus(id)
}

// ListJobs returns every persisted job paired with its current status.
func (s *Scheduler) ListJobs() ([]Info, error) {
	jobs, err := s.store.ListJobs()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(jobs))
	for _, j := range jobs {
		status, err := s.monitor.GetJobStatus(j.ID)
		if err != nil {
			status = job.StatusScheduled
		}
		infos = append(infos, Info{Job: j, Status: status})
	}
	return infos, nil
}

// EnableJob and DisableJob are stubs promoted to real scheduler
// operations (per spec.md §9): they flip Job.Enabled, persist, and
// update the queue's due-time computation so a disabled job is never
// popped and a re-enabled job resumes its normal cadence.
func (s *Scheduler) EnableJob(id job.ID) error {
	return s.setEnabled(id, true)
}

func (s *Scheduler) DisableJob(id job.ID) error {
	return s.setEnabled(id, false)
}

func (s *Scheduler) setEnabled(id job.ID, enabled bool) error {
	j, err := s.store.LoadJob(id)
	if err != nil {
		return err
	}
	j.Enabled = enabled
	j.Touch()
	if err := s.store.SaveJob(j); err != nil {
		return err
	}
	return s.queue.UpdateJob(j)
}

// TriggerJob submits id for immediate out-of-band execution without
// disturbing its normal schedule, per spec.md §4.1's manual-trigger
// operation.
func (s *Scheduler) TriggerJob(id job.ID) error {
	j, err := s.store.LoadJob(id)
	if err != nil {
		return err
	}
	_, err = s.executor.ExecuteJob(j)
	return err
}

// TriggerJobSync triggers id and blocks until a terminal result is
// recorded, polling the executor at a short interval.
func (s *Scheduler) TriggerJobSync(ctx context.Context, id job.ID) (*job.Result, error) {
	j, err := s.store.LoadJob(id)
	if err != nil {
		return nil, err
	}
	prev, _ := s.executor.GetJobResult(id)
	if _, err := s.executor.ExecuteJob(j); err != nil {
		return nil, err
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			result, ok := s.executor.GetJobResult(id)
			if !ok || result == prev {
				continue
			}
			if result.Status == job.StatusFailed && result.Attempt < j.RetryPolicy.MaxAttempts {
				continue
			}
			return result, nil
		}
	}
}

// CancelJob cancels a currently running job.
func (s *Scheduler) CancelJob(id job.ID) error {
	return s.executor.CancelJob(id)
}

// Stats returns the monitor's aggregate snapshot.
func (s *Scheduler) Stats() monitor.Stats {
	return s.monitor.GetStats()
}

// BackupJobs mirrors every persisted job into dir.
func (s *Scheduler) BackupJobs(dir string) error {
	return s.store.BackupJobs(dir)
}

// RestoreJobs loads every job file from dir back into the store.
func (s *Scheduler) RestoreJobs(dir string) error {
	return s.store.RestoreJobs(dir)
}

// StorageStats reports file count and total size of the job store.
func (s *Scheduler) StorageStats() (store.Stats, error) {
	return s.store.StorageStats()
}

// StartExecutor launches only the executor's worker pool, without the
// tick loop, monitor, or file watcher. It exists for short-lived CLI
// invocations (e.g. `scheduler trigger`) that need to run a single job
// to completion without turning the process into a long-lived daemon
// that would also dispatch every other due job in the store.
func (s *Scheduler) StartExecutor(ctx context.Context) {
	s.executor.Start(ctx)
}

// Start launches the executor, the monitor, and the tick loop, then
// replays every persisted job into the queue — mirroring the original
// scheduler's start/load_persisted_jobs sequence.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true
	s.mu.Unlock()

	s.executor.Start(ctx)
	s.monitor.Start(ctx)
	s.watcher.Start(ctx)

	if err := s.loadPersistedJobs(); err != nil {
		return fmt.Errorf("loading persisted jobs: %w", err)
	}

	go s.tickLoop(ctx)
	s.logger.Info("scheduler started", "tick_interval", s.tickInterval)
	return nil
}

// Stop halts the tick loop, executor, and monitor, in that order so no
// new dispatch can race a shutting-down executor.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.executor.Stop()
	s.monitor.Stop()
	_ = s.watcher.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loadPersistedJobs() error {
	jobs, err := s.store.LoadAllJobs()
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := s.queue.AddJob(j); err != nil {
			s.logger.Warn("skipping unschedulable persisted job", "job_id", j.ID, "error", err)
			continue
		}
		s.monitor.TrackJob(j.ID)
		if err := s.watcher.RegisterJob(j); err != nil {
			s.logger.Warn("failed to register persisted job with file watcher", "job_id", j.ID, "error", err)
		}
	}
	s.recordQueueDepth()
	s.logger.Info("loaded persisted jobs", "count", len(jobs))
	return nil
}

// tickLoop is the scheduling heartbeat from spec.md §4.7: once per tick
// interval, pull every due job off the queue and hand it to the
// executor, which applies its own back-pressure via the bounded
// request channel.
func (s *Scheduler) tickLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatchDue(now)
		}
	}
}

func (s *Scheduler) dispatchDue(now time.Time) {
	dispatched := false
	for {
		j, ok := s.queue.PopNextDue(now)
		if !ok {
			break
		}
		dispatched = true
		if !j.Enabled {
			continue
		}
		if _, err := s.executor.ExecuteJob(j); err != nil {
			s.logger.Error("failed to dispatch due job", "job_id", j.ID, "error", err)
		}
	}
	if dispatched {
		s.recordQueueDepth()
	}
}

// ValidateSchedule is exposed so the CLI's `add` command can validate a
// schedule before constructing a job.
func ValidateSchedule(sched job.Schedule) error {
	return parser.ValidateSchedule(sched)
}
