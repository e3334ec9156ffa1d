package metrics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/rae-systems/scheduler/internal/job"
)

// CollectJobProcessMetrics samples a running job's OS process (by pid)
// for CPU, memory, and thread usage, populating job.ResourceUsage.
func CollectJobProcessMetrics(pid int) (*ResourceSample, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}

	sample := &ResourceSample{
		Timestamp:       time.Now(),
		FileDescriptors: -1, // Default for non-Linux
	}

	if cpu, err := proc.CPUPercent(); err == nil {
		sample.CPUPercent = cpu
	}

	if memInfo, err := proc.MemoryInfo(); err == nil {
		sample.MemoryRSSBytes = memInfo.RSS
		sample.MemoryVMSBytes = memInfo.VMS
	}

	if memPct, err := proc.MemoryPercent(); err == nil {
		sample.MemoryPercent = memPct
	}

	if threads, err := proc.NumThreads(); err == nil {
		sample.Threads = threads
	}

	if fds, err := proc.NumFDs(); err == nil {
		sample.FileDescriptors = int32(fds)
	}

	return sample, nil
}

// UpdatePrometheusMetrics updates the job's Prometheus resource gauges
// from a sample.
func UpdatePrometheusMetrics(jobName string, sample *ResourceSample) {
	JobCPUPercent.WithLabelValues(jobName).Set(sample.CPUPercent)
	JobMemoryBytes.WithLabelValues(jobName, "rss").Set(float64(sample.MemoryRSSBytes))
	JobMemoryBytes.WithLabelValues(jobName, "vms").Set(float64(sample.MemoryVMSBytes))
	JobThreads.WithLabelValues(jobName).Set(float64(sample.Threads))
}

// ToResourceUsage converts a sample into the job package's public
// ResourceUsage record, attached to a JobResult on completion.
func (s ResourceSample) ToResourceUsage() job.ResourceUsage {
	return job.ResourceUsage{
		CPUPercent:  s.CPUPercent,
		MemoryMB:    float64(s.MemoryRSSBytes) / (1024 * 1024),
		ThreadCount: s.Threads,
	}
}

// ResourceCollector manages per-job resource metric collection, keyed by
// job.ID so each job's run history persists across dispatches.
type ResourceCollector struct {
	interval   time.Duration
	maxSamples int
	buffers    map[job.ID]*TimeSeriesBuffer
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewResourceCollector creates a new resource collector.
func NewResourceCollector(interval time.Duration, maxSamples int, logger *slog.Logger) *ResourceCollector {
	return &ResourceCollector{
		interval:   interval,
		maxSamples: maxSamples,
		buffers:    make(map[job.ID]*TimeSeriesBuffer),
		logger:     logger.With("component", "resource_collector"),
	}
}

// GetHistory returns time series for id.
func (rc *ResourceCollector) GetHistory(id job.ID, since time.Time, limit int) []ResourceSample {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	buffer, exists := rc.buffers[id]
	if !exists {
		return []ResourceSample{}
	}

	return buffer.GetRange(since, limit)
}

// AddSample adds a sample to id's buffer, lazily creating it.
func (rc *ResourceCollector) AddSample(id job.ID, sample ResourceSample) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.buffers[id]; !exists {
		rc.buffers[id] = NewTimeSeriesBuffer(rc.maxSamples)
	}

	rc.buffers[id].Add(sample)
}

// RemoveBuffer removes id's buffer (called when a job is removed).
func (rc *ResourceCollector) RemoveBuffer(id job.ID) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.buffers, id)
}

// GetBufferSizes returns the number of buffered samples per job.
func (rc *ResourceCollector) GetBufferSizes() map[job.ID]int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	sizes := make(map[job.ID]int, len(rc.buffers))
	for id, buffer := range rc.buffers {
		sizes[id] = buffer.Size()
	}

	return sizes
}

// GetInterval returns the collection interval.
func (rc *ResourceCollector) GetInterval() time.Duration {
	return rc.interval
}

// GetLatest returns the latest sample for id, if available.
func (rc *ResourceCollector) GetLatest(id job.ID) (ResourceSample, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	buffer, exists := rc.buffers[id]
	if !exists {
		return ResourceSample{}, false
	}

	return buffer.Latest()
}
