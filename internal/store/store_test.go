package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/rae-systems/scheduler/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), testLogger())
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

func TestStore_SaveLoadJob(t *testing.T) {
	s := newTestStore(t)
	j := cronJob("save-load")

	if err := s.SaveJob(j); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	loaded, err := s.LoadJob(j.ID)
	if err != nil {
		t.Fatalf("LoadJob() error = %v", err)
	}
	if loaded.ID != j.ID || loaded.Command != j.Command {
		t.Errorf("LoadJob() = %+v, want matching %+v", loaded, j)
	}
}

func TestStore_LoadJob_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadJob(job.NewID()); err == nil {
		t.Error("LoadJob() should error for a missing job")
	}
}

func TestStore_DeleteJob(t *testing.T) {
	s := newTestStore(t)
	j := cronJob("to-delete")
	if err := s.SaveJob(j); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	if err := s.DeleteJob(j.ID); err != nil {
		t.Fatalf("DeleteJob() error = %v", err)
	}
	if _, err := s.LoadJob(j.ID); err == nil {
		t.Error("LoadJob() should error after DeleteJob")
	}

	// Deleting an already-absent job is not an error.
	if err := s.DeleteJob(j.ID); err != nil {
		t.Errorf("DeleteJob() on missing job error = %v, want nil", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"a", "b", "c"} {
		if err := s.SaveJob(cronJob(name)); err != nil {
			t.Fatalf("SaveJob(%q) error = %v", name, err)
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

func TestStore_LoadAllJobs_PopulatesCache(t *testing.T) {
	s := newTestStore(t)
	j := cronJob("cached")
	if err := s.SaveJob(j); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	if _, err := s.LoadAllJobs(); err != nil {
		t.Fatalf("LoadAllJobs() error = %v", err)
	}
	if _, ok := s.GetCached(j.ID); !ok {
		t.Error("GetCached() should find the job after LoadAllJobs")
	}
}

func TestStore_ValidateJobData(t *testing.T) {
	s := newTestStore(t)
	j := cronJob("valid")
	if err := s.SaveJob(j); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	if !s.ValidateJobData(j.ID) {
		t.Error("ValidateJobData() = false, want true for a well-formed job")
	}
	if s.ValidateJobData(job.NewID()) {
		t.Error("ValidateJobData() = true, want false for a missing job")
	}
}

func TestStore_BackupRestore(t *testing.T) {
	s := newTestStore(t)
	j := cronJob("backup-me")
	if err := s.SaveJob(j); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	backupDir := filepath.Join(t.TempDir(), "backup")
	if err := s.BackupJobs(backupDir); err != nil {
		t.Fatalf("BackupJobs() error = %v", err)
	}

	fresh := newTestStore(t)
	if err := fresh.RestoreJobs(backupDir); err != nil {
		t.Fatalf("RestoreJobs() error = %v", err)
	}
	restored, err := fresh.LoadJob(j.ID)
	if err != nil {
		t.Fatalf("LoadJob() after restore error = %v", err)
	}
	if restored.Command != j.Command {
		t.Errorf("restored job command = %q, want %q", restored.Command, j.Command)
	}
}

func TestStore_StorageStats(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveJob(cronJob("stat-me")); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	stats, err := s.StorageStats()
	if err != nil {
		t.Fatalf("StorageStats() error = %v", err)
	}
	if stats.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", stats.TotalFiles)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0 for a saved job")
	}
}

func TestDefaultDataDir_EnvOverride(t *testing.T) {
	t.Setenv("RAE_SCHEDULER_DATA_DIR", "/tmp/custom-rae-data")
	dir, err := DefaultDataDir()
	if err != nil {
		t.Fatalf("DefaultDataDir() error = %v", err)
	}
	if dir != "/tmp/custom-rae-data" {
		t.Errorf("DefaultDataDir() = %q, want /tmp/custom-rae-data", dir)
	}
}
