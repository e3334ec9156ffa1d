// Package monitor tracks per-job health and aggregate statistics, and
// runs the background surveillance loop from spec.md §4.6: a periodic
// tick that flags stuck running jobs and high-failure-rate jobs.
// Aggregate stats are computed on demand by GetStats.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

const (
	defaultTickInterval = 30 * time.Second
	stuckJobThreshold    = 60 * time.Minute
	highFailureRateThreshold = 0.5
)

// Stats is the monitor's aggregate snapshot across every tracked job.
type Stats struct {
	TotalJobs           int     `json:"total_jobs"`
	RunningJobs         int     `json:"running_jobs"`
	CompletedJobs       int     `json:"completed_jobs"`
	FailedJobs          int     `json:"failed_jobs"`
	CancelledJobs       int     `json:"cancelled_jobs"`
	AverageExecutionTime float64 `json:"average_execution_time"`
	SuccessRate         float64 `json:"success_rate"`
}

// Monitor keeps a job.Health entry per tracked job, guarded by its own
// lock per spec.md §5.
type Monitor struct {
	mu      sync.RWMutex
	tracked map[job.ID]*job.Health

	tickInterval time.Duration
	logger       *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New constructs a monitor with the given health-check tick interval
// (defaults to 30s, per spec.md §4.6, when interval <= 0).
func New(interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		tracked:      make(map[job.ID]*job.Health),
		tickInterval: interval,
		logger:       logger.With("component", "monitor"),
	}
}

// Start launches the background health loop. Stop must be called to
// release it.
func (m *Monitor) Start(ctx context.Context) {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(ctx)
	m.logger.Info("monitor started", "interval", m.tickInterval)
}

// Stop halts the background health loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.stop != nil {
			close(m.stop)
		}
	})
	if m.done != nil {
		<-m.done
	}
	m.logger.Info("monitor stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.performHealthChecks()
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) performHealthChecks() {
	m.mu.Lock()
	now := time.Now().UTC()
	for id, h := range m.tracked {
		h.LastCheck = now
		if h.Status == job.StatusRunning && h.LastExecution != nil {
			if now.Sub(*h.LastExecution) > stuckJobThreshold {
				m.logger.Warn("job appears stuck", "job_id", id, "running_since", *h.LastExecution)
			}
		}
		if h.ExecutionCount > 0 {
			if rate := h.FailureRate(); rate > highFailureRateThreshold {
				m.logger.Warn("job has high failure rate", "job_id", id, "failure_rate", rate)
			}
		}
	}
	m.mu.Unlock()
}

// TrackJob begins tracking id in the Scheduled state.
func (m *Monitor) TrackJob(id job.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[id] = &job.Health{
		JobID:     id,
		Status:    job.StatusScheduled,
		LastCheck: time.Now().UTC(),
	}
}

// UntrackJob stops tracking id. Idempotent — untracking an unknown id
// is not an error, matching the facade's best-effort untrack contract.
func (m *Monitor) UntrackJob(id job.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, id)
}

// UpdateJobStatus updates id's status and last_check, and on a terminal
// Completed/Failed transition updates execution_count/failure_count.
func (m *Monitor) UpdateJobStatus(id job.ID, status job.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.tracked[id]
	if !ok {
		return fmt.Errorf("%w: job %s", job.ErrNotFound, id)
	}
	h.Status = status
	h.LastCheck = time.Now().UTC()
	switch status {
	case job.StatusCompleted:
		h.ExecutionCount++
		now := time.Now().UTC()
		h.LastExecution = &now
	case job.StatusFailed:
		h.FailureCount++
		h.ExecutionCount++
		now := time.Now().UTC()
		h.LastExecution = &now
	}
	return nil
}

// GetJobStatus returns the tracked status for id.
func (m *Monitor) GetJobStatus(id job.ID) (job.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.tracked[id]
	if !ok {
		return "", fmt.Errorf("%w: job %s", job.ErrNotFound, id)
	}
	return h.Status, nil
}

// GetJobHealth returns a copy of the tracked health record for id.
func (m *Monitor) GetJobHealth(id job.ID) (job.Health, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.tracked[id]
	if !ok {
		return job.Health{}, fmt.Errorf("%w: job %s", job.ErrNotFound, id)
	}
	return *h, nil
}

// GetTrackedJobs returns a snapshot of every tracked health record.
func (m *Monitor) GetTrackedJobs() []job.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]job.Health, 0, len(m.tracked))
	for _, h := range m.tracked {
		out = append(out, *h)
	}
	return out
}

// GetStats recomputes and returns the aggregate snapshot described in
// spec.md §4.6.
func (m *Monitor) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats Stats
	var totalDuration float64
	var totalExecutions, totalFailures int64

	for _, h := range m.tracked {
		stats.TotalJobs++
		switch h.Status {
		case job.StatusRunning:
			stats.RunningJobs++
		case job.StatusCompleted:
			stats.CompletedJobs++
		case job.StatusFailed:
			stats.FailedJobs++
		case job.StatusCancelled:
			stats.CancelledJobs++
		}
		totalExecutions += h.ExecutionCount
		totalFailures += h.FailureCount
		totalDuration += h.AverageDurationSeconds
	}

	if stats.TotalJobs > 0 {
		stats.AverageExecutionTime = totalDuration / float64(stats.TotalJobs)
	}
	if totalExecutions > 0 {
		stats.SuccessRate = float64(totalExecutions-totalFailures) / float64(totalExecutions)
	}
	return stats
}

// RecordDuration folds a completed run's duration into the tracked
// job's running average, used by the facade after a JobResult arrives.
func (m *Monitor) RecordDuration(id job.ID, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.tracked[id]
	if !ok {
		return
	}
	n := float64(h.ExecutionCount)
	if n <= 0 {
		h.AverageDurationSeconds = d.Seconds()
		return
	}
	h.AverageDurationSeconds = ((h.AverageDurationSeconds * (n - 1)) + d.Seconds()) / n
}
