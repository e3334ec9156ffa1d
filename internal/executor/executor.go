// Package executor is the work engine from spec.md §4.5: a bounded
// channel of execution requests drained by a fixed worker pool, each
// worker spawning a subprocess, applying an optional hard timeout,
// and driving retry with exponential backoff on failure.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/logger"
	"github.com/rae-systems/scheduler/internal/metrics"
)

const requestQueueCapacity = 100

// ResultHandler is invoked once per completed attempt so callers (the
// monitor, the scheduler facade) can react without the executor knowing
// about them. It must not block for long — it runs on the worker
// goroutine that produced the result.
type ResultHandler func(j *job.Job, result *job.Result)

type request struct {
	job     *job.Job
	attempt int
}

type runningEntry struct {
	job        *job.Job
	startTime  time.Time
	attempt    int
	cancel     context.CancelFunc
	cancelled  atomic.Bool
}

// Executor is the worker pool that dispatches and retries job runs.
type Executor struct {
	requests chan request
	workers  int
	logger   *slog.Logger
	onResult ResultHandler

	mu      sync.RWMutex
	running map[job.ID]*runningEntry
	results map[job.ID]*job.Result

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs an executor with the given worker pool size. onResult
// may be nil if the caller only polls GetJobResult/GetJobStatus.
func New(workers int, logger *slog.Logger, onResult ResultHandler) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		requests: make(chan request, requestQueueCapacity),
		workers:  workers,
		logger:   logger.With("component", "executor"),
		onResult: onResult,
		running:  make(map[job.ID]*runningEntry),
		results:  make(map[job.ID]*job.Result),
	}
}

// Start launches the worker pool. The returned context governs every
// in-flight subprocess; cancel it (via Stop) to tear everything down.
func (e *Executor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
	e.logger.Info("executor started", "workers", e.workers)
}

// Stop cancels every running subprocess, recording a Cancelled result
// for each, then waits for workers to drain.
func (e *Executor) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	close(e.requests)
	e.wg.Wait()

	e.mu.Lock()
	for id, r := range e.running {
		result := &job.Result{
			JobID:     id,
			Attempt:   r.attempt,
			StartedAt: r.startTime,
			Status:    job.StatusCancelled,
			Error:     "executor shutdown",
		}
		now := time.Now().UTC()
		result.EndedAt = &now
		e.results[id] = result
		delete(e.running, id)
	}
	e.mu.Unlock()
	e.logger.Info("executor stopped")
}

// ExecuteJob validates j (non-empty command, enabled) and enqueues the
// first attempt. It blocks if the request channel is full, which is the
// back-pressure mechanism the tick loop relies on.
func (e *Executor) ExecuteJob(j *job.Job) (job.ID, error) {
	if j.Command == "" {
		return "", fmt.Errorf("%w: job %s has empty command", job.ErrValidation, j.ID)
	}
	if !j.Enabled {
		return "", fmt.Errorf("%w: job %s is disabled", job.ErrValidation, j.ID)
	}
	e.requests <- request{job: j, attempt: 1}
	return j.ID, nil
}

// GetJobStatus returns Running if the job is in the running-set, else
// the status of its last result, else Scheduled.
func (e *Executor) GetJobStatus(id job.ID) job.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.running[id]; ok {
		return job.StatusRunning
	}
	if r, ok := e.results[id]; ok {
		return r.Status
	}
	return job.StatusScheduled
}

// GetJobResult returns the result of id's most recent attempt, if any.
// While retries remain, that can be a Failed attempt the executor is
// about to retry.
func (e *Executor) GetJobResult(id job.ID) (*job.Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.results[id]
	return r, ok
}

// CancelJob marks id's running attempt as cancelled and kills its
// subprocess; runOnce then records a Cancelled result. It returns
// ErrNotFound when id is not running. A request still waiting in the
// channel is not affected: it runs when a worker takes it.
func (e *Executor) CancelJob(id job.ID) error {
	e.mu.Lock()
	r, ok := e.running[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: job %s is not running", job.ErrNotFound, id)
	}
	r.cancelled.Store(true)
	e.mu.Unlock()

	r.cancel()
	return nil
}

func (e *Executor) worker(ctx context.Context) {
	defer e.wg.Done()
	for req := range e.requests {
		e.runWithRetries(ctx, req)
	}
}

// runWithRetries drives one job through its full attempt sequence,
// sleeping for the computed backoff between failed attempts, entirely
// within this goroutine — which is what guarantees "attempt n completes
// before attempt n+1 starts" (spec.md §5) without needing to round-trip
// back through the request channel.
func (e *Executor) runWithRetries(ctx context.Context, req request) {
	j := req.job
	attempt := req.attempt

	for {
		result := e.runOnce(ctx, j, attempt)

		e.mu.Lock()
		e.results[j.ID] = result
		e.mu.Unlock()

		if e.onResult != nil {
			e.onResult(j, result)
		}

		if result.Status != job.StatusFailed {
			return
		}
		if attempt >= j.RetryPolicy.MaxAttempts {
			return
		}

		delay := backoffDelay(j.RetryPolicy, attempt)
		e.logger.Info("job failed, retrying", "job_id", j.ID, "attempt", attempt, "next_attempt", attempt+1, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		attempt++
	}
}

// backoffDelay implements spec.md §4.5: base = delay_seconds; when
// exponential, delay = min(base * 2^(attempt-1), max_delay ?? +inf),
// matching the bit-shift cap the teacher's process/restart.go uses to
// avoid overflow for large attempt counts.
func backoffDelay(policy job.RetryPolicy, attempt int) time.Duration {
	base := time.Duration(policy.DelaySeconds) * time.Second
	if !policy.ExponentialBackoff {
		return base
	}
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	const maxShift = 62
	if shift > maxShift {
		shift = maxShift
	}
	delay := base * time.Duration(uint64(1)<<uint(shift)) // #nosec G115
	if policy.MaxDelaySeconds != nil {
		maxDelay := time.Duration(*policy.MaxDelaySeconds) * time.Second
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return delay
}

func (e *Executor) runOnce(parent context.Context, j *job.Job, attempt int) *job.Result {
	start := time.Now().UTC()

	runCtx, cancel := context.WithCancel(parent)
	if j.ResourceLimits.MaxDurationSecond != nil {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, time.Duration(*j.ResourceLimits.MaxDurationSecond)*time.Second)
		defer timeoutCancel()
	}
	defer cancel()

	entry := &runningEntry{job: j, startTime: start, attempt: attempt, cancel: cancel}
	e.mu.Lock()
	e.running[j.ID] = entry
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, j.ID)
		e.mu.Unlock()
	}()

	if j.WorkingDir != "" {
		if _, err := os.Stat(j.WorkingDir); err != nil {
			result := failedResult(j.ID, attempt, start, "no such working directory")
			e.recordResultMetrics(j, result)
			return result
		}
	}

	cmd := exec.CommandContext(runCtx, j.Command, j.Args...)
	cmd.Dir = j.WorkingDir
	cmd.Env = overlayEnv(os.Environ(), j.Env)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	redactedEnv := logger.RedactEnvKeys(j.Env)
	e.logger.Info("job started", "job_id", j.ID, "attempt", attempt, "command", j.Command, "env", redactedEnv)

	if err := cmd.Start(); err != nil {
		e.logger.Error("job failed to start", "job_id", j.ID, "attempt", attempt, "error", err)
		result := failedResult(j.ID, attempt, start, err.Error())
		e.recordResultMetrics(j, result)
		return result
	}

	sampleDone := make(chan struct{})
	var resourceUsage *job.ResourceUsage
	go func() {
		defer close(sampleDone)
		resourceUsage = e.sampleResources(runCtx.Done(), j, cmd.Process.Pid)
	}()

	runErr := cmd.Wait()
	end := time.Now().UTC()
	<-sampleDone

	var result *job.Result
	switch {
	case entry.cancelled.Load() || parent.Err() != nil:
		result = &job.Result{
			JobID:     j.ID,
			Attempt:   attempt,
			StartedAt: start,
			EndedAt:   &end,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			Status:    job.StatusCancelled,
			Error:     "cancelled",
		}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		e.logger.Warn("job timed out", "job_id", j.ID, "attempt", attempt)
		result = &job.Result{
			JobID:     j.ID,
			Attempt:   attempt,
			StartedAt: start,
			EndedAt:   &end,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			Status:    job.StatusFailed,
			Error:     "timeout",
		}
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code := exitErr.ExitCode()
			e.logger.Warn("job exited non-zero", "job_id", j.ID, "attempt", attempt, "exit_code", code)
			result = &job.Result{
				JobID:     j.ID,
				Attempt:   attempt,
				StartedAt: start,
				EndedAt:   &end,
				ExitCode:  &code,
				Stdout:    stdout.String(),
				Stderr:    stderr.String(),
				Status:    job.StatusFailed,
				Error:     fmt.Sprintf("Exit code: %d", code),
			}
		} else {
			e.logger.Error("job run error", "job_id", j.ID, "attempt", attempt, "error", runErr)
			result = failedResult(j.ID, attempt, start, runErr.Error())
			result.EndedAt = &end
		}
	default:
		code := 0
		e.logger.Info("job completed", "job_id", j.ID, "attempt", attempt, "env", redactedEnv)
		result = &job.Result{
			JobID:     j.ID,
			Attempt:   attempt,
			StartedAt: start,
			EndedAt:   &end,
			ExitCode:  &code,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			Status:    job.StatusCompleted,
		}
	}

	result.ResourceUsage = resourceUsage
	e.recordResultMetrics(j, result)
	return result
}

const resourceSampleInterval = 2 * time.Second

// sampleResources periodically samples pid's CPU/memory/thread usage
// into Prometheus gauges until done closes, returning the most recent
// sample converted into a job.ResourceUsage for the eventual Result. A
// short-lived subprocess may finish before the first tick — a nil
// return just means no sample was ever taken.
func (e *Executor) sampleResources(done <-chan struct{}, j *job.Job, pid int) *job.ResourceUsage {
	ticker := time.NewTicker(resourceSampleInterval)
	defer ticker.Stop()

	var latest *job.ResourceUsage
	for {
		select {
		case <-done:
			return latest
		case <-ticker.C:
			sample, err := metrics.CollectJobProcessMetrics(pid)
			if err != nil {
				metrics.ResourceCollectionErrors.WithLabelValues(j.Name).Inc()
				continue
			}
			metrics.UpdatePrometheusMetrics(j.Name, sample)
			e.warnOnResourceLimits(j, sample)
			usage := sample.ToResourceUsage()
			latest = &usage
		}
	}
}

// warnOnResourceLimits logs an advisory warning when a sample exceeds
// the job's ResourceLimits — none of these are enforced, per job.go.
func (e *Executor) warnOnResourceLimits(j *job.Job, sample *metrics.ResourceSample) {
	limits := j.ResourceLimits
	if limits.MaxCPUPercent != nil && sample.CPUPercent > *limits.MaxCPUPercent {
		e.logger.Warn("job exceeds advisory CPU limit", "job_id", j.ID, "cpu_percent", sample.CPUPercent, "limit", *limits.MaxCPUPercent)
	}
	if limits.MaxMemoryMB != nil {
		memMB := float64(sample.MemoryRSSBytes) / (1024 * 1024)
		if memMB > *limits.MaxMemoryMB {
			e.logger.Warn("job exceeds advisory memory limit", "job_id", j.ID, "memory_mb", memMB, "limit", *limits.MaxMemoryMB)
		}
	}
}

// recordResultMetrics updates the Prometheus dispatch counters/gauges
// for one completed attempt, regardless of trigger source (tick
// dispatch, manual trigger, file event) since every attempt passes
// through here.
func (e *Executor) recordResultMetrics(j *job.Job, result *job.Result) {
	duration := 0.0
	if result.EndedAt != nil {
		duration = result.EndedAt.Sub(result.StartedAt).Seconds()
		metrics.RecordJobLastRun(j.Name, float64(result.EndedAt.Unix()))
	}
	metrics.RecordJobRun(j.Name, string(result.Status), duration)
	if result.ExitCode != nil {
		metrics.RecordJobLastExitCode(j.Name, *result.ExitCode)
	}
}

func failedResult(id job.ID, attempt int, start time.Time, errMsg string) *job.Result {
	end := time.Now().UTC()
	return &job.Result{
		JobID:     id,
		Attempt:   attempt,
		StartedAt: start,
		EndedAt:   &end,
		Status:    job.StatusFailed,
		Error:     errMsg,
	}
}

func overlayEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	env := make([]string, len(base), len(base)+len(overlay))
	copy(env, base)
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}
	return env
}
