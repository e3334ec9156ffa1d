package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMonitor_TrackUntrackJob(t *testing.T) {
	m := New(time.Minute, testLogger())
	id := job.NewID()

	m.TrackJob(id)
	status, err := m.GetJobStatus(id)
	if err != nil {
		t.Fatalf("GetJobStatus() error = %v", err)
	}
	if status != job.StatusScheduled {
		t.Errorf("GetJobStatus() = %v, want Scheduled", status)
	}

	m.UntrackJob(id)
	if _, err := m.GetJobStatus(id); err == nil {
		t.Error("GetJobStatus() should error after UntrackJob")
	}
}

func TestMonitor_GetJobStatus_Unknown(t *testing.T) {
	m := New(time.Minute, testLogger())
	if _, err := m.GetJobStatus(job.NewID()); err == nil {
		t.Error("GetJobStatus() should error for an untracked job")
	}
}

func TestMonitor_UpdateJobStatus_TracksFailuresAndExecutions(t *testing.T) {
	m := New(time.Minute, testLogger())
	id := job.NewID()
	m.TrackJob(id)

	if err := m.UpdateJobStatus(id, job.StatusRunning); err != nil {
		t.Fatalf("UpdateJobStatus(Running) error = %v", err)
	}
	if err := m.UpdateJobStatus(id, job.StatusFailed); err != nil {
		t.Fatalf("UpdateJobStatus(Failed) error = %v", err)
	}

	health, err := m.GetJobHealth(id)
	if err != nil {
		t.Fatalf("GetJobHealth() error = %v", err)
	}
	if health.ExecutionCount != 1 {
		t.Errorf("ExecutionCount = %d, want 1", health.ExecutionCount)
	}
	if health.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", health.FailureCount)
	}
	if health.FailureRate() != 1.0 {
		t.Errorf("FailureRate() = %v, want 1.0", health.FailureRate())
	}
}

func TestMonitor_UpdateJobStatus_Unknown(t *testing.T) {
	m := New(time.Minute, testLogger())
	if err := m.UpdateJobStatus(job.NewID(), job.StatusRunning); err == nil {
		t.Error("UpdateJobStatus() should error for an untracked job")
	}
}

func TestMonitor_RecordDuration_RunningAverage(t *testing.T) {
	m := New(time.Minute, testLogger())
	id := job.NewID()
	m.TrackJob(id)

	if err := m.UpdateJobStatus(id, job.StatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	m.RecordDuration(id, 2*time.Second)

	health, err := m.GetJobHealth(id)
	if err != nil {
		t.Fatalf("GetJobHealth() error = %v", err)
	}
	if health.AverageDurationSeconds != 2.0 {
		t.Errorf("AverageDurationSeconds = %v, want 2.0", health.AverageDurationSeconds)
	}

	if err := m.UpdateJobStatus(id, job.StatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	m.RecordDuration(id, 4*time.Second)

	health, _ = m.GetJobHealth(id)
	if health.AverageDurationSeconds != 3.0 {
		t.Errorf("AverageDurationSeconds after second run = %v, want 3.0", health.AverageDurationSeconds)
	}
}

func TestMonitor_GetStats(t *testing.T) {
	m := New(time.Minute, testLogger())
	ok := job.NewID()
	failing := job.NewID()

	m.TrackJob(ok)
	m.TrackJob(failing)

	if err := m.UpdateJobStatus(ok, job.StatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus(ok) error = %v", err)
	}
	if err := m.UpdateJobStatus(failing, job.StatusFailed); err != nil {
		t.Fatalf("UpdateJobStatus(failing) error = %v", err)
	}

	stats := m.GetStats()
	if stats.TotalJobs != 2 {
		t.Errorf("TotalJobs = %d, want 2", stats.TotalJobs)
	}
	if stats.CompletedJobs != 1 {
		t.Errorf("CompletedJobs = %d, want 1", stats.CompletedJobs)
	}
	if stats.FailedJobs != 1 {
		t.Errorf("FailedJobs = %d, want 1", stats.FailedJobs)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", stats.SuccessRate)
	}
}

func TestMonitor_GetTrackedJobs(t *testing.T) {
	m := New(time.Minute, testLogger())
	m.TrackJob(job.NewID())
	m.TrackJob(job.NewID())

	tracked := m.GetTrackedJobs()
	if len(tracked) != 2 {
		t.Errorf("GetTrackedJobs() returned %d entries, want 2", len(tracked))
	}
}

func TestMonitor_RecordDuration_UnknownJobIsNoOp(t *testing.T) {
	m := New(time.Minute, testLogger())
	// Must not panic for an untracked id.
	m.RecordDuration(job.NewID(), time.Second)
}
