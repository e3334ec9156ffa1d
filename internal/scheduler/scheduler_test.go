package scheduler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(Config{
		DataDir: t.TempDir(),
		Workers: 2,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func cronJob(name string) *job.Job {
	j := job.New(name, "/bin/true")
	j.Schedule = job.Schedule{Cron: "* * * * *"}
	return j
}

func TestNew_DefaultsDataDir(t *testing.T) {
	s, err := New(Config{Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s == nil {
		t.Fatal("expected non-nil scheduler")
	}
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("backup")
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if id != j.ID {
		t.Errorf("AddJob() returned %v, want %v", id, j.ID)
	}

	status, err := s.GetJobStatus(id)
	if err != nil {
		t.Fatalf("GetJobStatus() error = %v", err)
	}
	if status != job.StatusScheduled {
		t.Errorf("GetJobStatus() = %v, want Scheduled", status)
	}
}

func TestScheduler_AddJob_RejectsInvalid(t *testing.T) {
	s := newTestScheduler(t)

	j := job.New("no-trigger", "/bin/true")
	if _, err := s.AddJob(j); err == nil {
		t.Error("AddJob() should reject a job with no trigger")
	}
}

func TestScheduler_AddJob_CompensatesOnQueueFailure(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("dup")
	if _, err := s.AddJob(j); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	// Re-adding the identical ID should fail the queue step, and the
	// compensating delete then removes the persisted file as well.
	if _, err := s.AddJob(j); err == nil {
		t.Error("AddJob() should error on a duplicate job ID")
	}

	jobs, err := s.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("ListJobs() returned %d jobs, want 0 after the compensating delete", len(jobs))
	}
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("cleanup")
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	if err := s.RemoveJob(id); err != nil {
		t.Fatalf("RemoveJob() error = %v", err)
	}

	if _, err := s.GetJobStatus(id); err == nil {
		t.Error("GetJobStatus() should error after removal")
	}
}

func TestScheduler_ListJobs(t *testing.T) {
	s := newTestScheduler(t)

	for _, name := range []string{"job1", "job2", "job3"} {
		if _, err := s.AddJob(cronJob(name)); err != nil {
			t.Fatalf("AddJob(%q) error = %v", name, err)
		}
	}

	jobs, err := s.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("ListJobs() returned %d jobs, want 3", len(jobs))
	}
}

func TestScheduler_EnableDisableJob(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("toggle")
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	if err := s.DisableJob(id); err != nil {
		t.Fatalf("DisableJob() error = %v", err)
	}
	jobs, _ := s.ListJobs()
	if jobs[0].Job.Enabled {
		t.Error("job should be disabled")
	}

	if err := s.EnableJob(id); err != nil {
		t.Fatalf("EnableJob() error = %v", err)
	}
	jobs, _ = s.ListJobs()
	if !jobs[0].Job.Enabled {
		t.Error("job should be re-enabled")
	}
}

func TestScheduler_EnableJob_UnknownID(t *testing.T) {
	s := newTestScheduler(t)
	if err := s.EnableJob(job.NewID()); err == nil {
		t.Error("EnableJob() should error for an unknown job")
	}
}

func TestScheduler_TriggerJobSync(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("manual")
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	result, err := s.TriggerJobSync(ctx, id)
	if err != nil {
		t.Fatalf("TriggerJobSync() error = %v", err)
	}
	if result.Status != job.StatusCompleted {
		t.Errorf("TriggerJobSync() status = %v, want Completed", result.Status)
	}
}

func TestScheduler_TerminalFailure_ReEnqueuesJob(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("always-fails")
	j.Command = "/bin/false"
	j.RetryPolicy.MaxAttempts = 1
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	result, err := s.TriggerJobSync(ctx, id)
	if err != nil {
		t.Fatalf("TriggerJobSync() error = %v", err)
	}
	if result.Status != job.StatusFailed {
		t.Fatalf("TriggerJobSync() status = %v, want Failed", result.Status)
	}

	// A recurring cron job must stay in the queue after a terminal
	// failure so it fires again on its next occurrence instead of
	// silently stopping forever.
	if !s.queue.Contains(id) {
		t.Error("job should be re-enqueued after its retries are exhausted, even though it failed")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(t)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Starting twice must be a no-op, not a second tick loop.
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	s.Stop()

	// Stopping twice must not block or panic.
	s.Stop()
}

func TestScheduler_Start_ReplaysPersistedJobs(t *testing.T) {
	dir := t.TempDir()

	s1, err := New(Config{DataDir: dir, Workers: 1, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	j := cronJob("persisted")
	if _, err := s1.AddJob(j); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	s2, err := New(Config{DataDir: dir, Workers: 1, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s2.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s2.Stop()

	if _, err := s2.GetJobStatus(j.ID); err != nil {
		t.Errorf("GetJobStatus() error = %v, want persisted job tracked after restart", err)
	}
}

func TestScheduler_DispatchDue_SkipsDisabled(t *testing.T) {
	s := newTestScheduler(t)

	j := cronJob("disabled")
	j.Enabled = false
	j.Schedule.At = nil
	id, err := s.AddJob(j)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	// A disabled job must never be popped by the tick loop, even when
	// its cron would otherwise be due every minute.
	s.dispatchDue(time.Now().Add(time.Hour))

	status, err := s.GetJobStatus(id)
	if err != nil {
		t.Fatalf("GetJobStatus() error = %v", err)
	}
	if status != job.StatusScheduled {
		t.Errorf("GetJobStatus() = %v, want Scheduled (never dispatched)", status)
	}
}

func TestScheduler_Stats(t *testing.T) {
	s := newTestScheduler(t)
	if _, err := s.AddJob(cronJob("stats-job")); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	stats := s.Stats()
	if stats.TotalJobs != 1 {
		t.Errorf("Stats().TotalJobs = %d, want 1", stats.TotalJobs)
	}
}

func TestScheduler_FileEventTriggersJob(t *testing.T) {
	s := newTestScheduler(t)

	dir := t.TempDir()
	watchPath := dir + "/watched.txt"
	if err := os.WriteFile(watchPath, []byte("v1"), 0644); err != nil {
		t.Fatalf("failed to create watched file: %v", err)
	}

	j := job.New("on-file-change", "/bin/true")
	j.Schedule = job.Schedule{Event: &job.EventTrigger{EventType: job.EventFileModified, Path: watchPath}}
	if _, err := s.AddJob(j); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(watchPath, []byte("v2"), 0644); err != nil {
		t.Fatalf("failed to modify watched file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if status, err := s.GetJobStatus(j.ID); err == nil && status != job.StatusScheduled {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("job was never triggered by the file modification")
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule(job.Schedule{Cron: "* * * * *"}); err != nil {
		t.Errorf("ValidateSchedule() error = %v, want nil for valid cron", err)
	}
	if err := ValidateSchedule(job.Schedule{Cron: "not a cron"}); err == nil {
		t.Error("ValidateSchedule() should error on an invalid cron expression")
	}
}
