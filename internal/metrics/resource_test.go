package metrics

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectJobProcessMetrics_CurrentProcess(t *testing.T) {
	sample, err := CollectJobProcessMetrics(os.Getpid())
	if err != nil {
		t.Fatalf("CollectJobProcessMetrics() error = %v", err)
	}
	if sample.Threads <= 0 {
		t.Errorf("Threads = %d, want > 0 for the current process", sample.Threads)
	}
	if sample.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestCollectJobProcessMetrics_InvalidPID(t *testing.T) {
	if _, err := CollectJobProcessMetrics(-1); err == nil {
		t.Error("CollectJobProcessMetrics() should error for an invalid pid")
	}
}

func TestResourceSample_ToResourceUsage(t *testing.T) {
	sample := ResourceSample{
		CPUPercent:     42.5,
		MemoryRSSBytes: 10 * 1024 * 1024,
		Threads:        4,
	}
	usage := sample.ToResourceUsage()
	if usage.CPUPercent != 42.5 {
		t.Errorf("CPUPercent = %v, want 42.5", usage.CPUPercent)
	}
	if usage.MemoryMB != 10 {
		t.Errorf("MemoryMB = %v, want 10", usage.MemoryMB)
	}
	if usage.ThreadCount != 4 {
		t.Errorf("ThreadCount = %d, want 4", usage.ThreadCount)
	}
}

func TestUpdatePrometheusMetrics(t *testing.T) {
	sample := ResourceSample{CPUPercent: 10, MemoryRSSBytes: 1024, MemoryVMSBytes: 2048, Threads: 2}
	// Should not panic.
	UpdatePrometheusMetrics("backup", &sample)
}

func TestNewResourceCollector(t *testing.T) {
	rc := NewResourceCollector(5*time.Second, 100, testLogger())
	if rc.GetInterval() != 5*time.Second {
		t.Errorf("GetInterval() = %v, want 5s", rc.GetInterval())
	}
}

func TestResourceCollector_AddSample(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	id := job.NewID()

	rc.AddSample(id, ResourceSample{Timestamp: time.Now(), CPUPercent: 5})
	sizes := rc.GetBufferSizes()
	if sizes[id] != 1 {
		t.Errorf("buffer size for %v = %d, want 1", id, sizes[id])
	}
}

func TestResourceCollector_GetHistory(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	id := job.NewID()
	now := time.Now()

	rc.AddSample(id, ResourceSample{Timestamp: now.Add(-time.Minute), CPUPercent: 1})
	rc.AddSample(id, ResourceSample{Timestamp: now, CPUPercent: 2})

	history := rc.GetHistory(id, now.Add(-2*time.Minute), 10)
	if len(history) != 2 {
		t.Fatalf("GetHistory() returned %d samples, want 2", len(history))
	}
}

func TestResourceCollector_GetHistory_NonExistent(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	history := rc.GetHistory(job.NewID(), time.Time{}, 10)
	if len(history) != 0 {
		t.Errorf("GetHistory() for unknown job returned %d samples, want 0", len(history))
	}
}

func TestResourceCollector_RemoveBuffer(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	id := job.NewID()
	rc.AddSample(id, ResourceSample{Timestamp: time.Now()})

	rc.RemoveBuffer(id)
	if _, ok := rc.GetLatest(id); ok {
		t.Error("GetLatest() should fail after RemoveBuffer")
	}
}

func TestResourceCollector_GetBufferSizes(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	a, b := job.NewID(), job.NewID()
	rc.AddSample(a, ResourceSample{Timestamp: time.Now()})
	rc.AddSample(b, ResourceSample{Timestamp: time.Now()})
	rc.AddSample(b, ResourceSample{Timestamp: time.Now()})

	sizes := rc.GetBufferSizes()
	if sizes[a] != 1 || sizes[b] != 2 {
		t.Errorf("GetBufferSizes() = %+v, want a=1 b=2", sizes)
	}
}

func TestResourceCollector_GetLatest(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	id := job.NewID()

	if _, ok := rc.GetLatest(id); ok {
		t.Error("GetLatest() should fail before any sample is added")
	}

	rc.AddSample(id, ResourceSample{Timestamp: time.Now(), CPUPercent: 1})
	rc.AddSample(id, ResourceSample{Timestamp: time.Now(), CPUPercent: 9})

	latest, ok := rc.GetLatest(id)
	if !ok {
		t.Fatal("GetLatest() = false, want true")
	}
	if latest.CPUPercent != 9 {
		t.Errorf("GetLatest().CPUPercent = %v, want 9 (most recent sample)", latest.CPUPercent)
	}
}

func TestResourceCollector_ConcurrentAccess(t *testing.T) {
	rc := NewResourceCollector(time.Second, 100, testLogger())
	id := job.NewID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.AddSample(id, ResourceSample{Timestamp: time.Now()})
			rc.GetLatest(id)
			rc.GetBufferSizes()
		}()
	}
	wg.Wait()
}

func TestResourceCollector_MultipleJobs(t *testing.T) {
	rc := NewResourceCollector(time.Second, 10, testLogger())
	ids := []job.ID{job.NewID(), job.NewID(), job.NewID()}
	for _, id := range ids {
		rc.AddSample(id, ResourceSample{Timestamp: time.Now()})
	}
	sizes := rc.GetBufferSizes()
	if len(sizes) != 3 {
		t.Errorf("GetBufferSizes() tracked %d jobs, want 3", len(sizes))
	}
}
