// Package metrics exposes the scheduler's Prometheus instrumentation
// and resource-usage sampling, per the DOMAIN STACK's metrics/gopsutil
// wiring: counters and histograms for dispatch/retry/failure/queue
// depth, plus per-run CPU/memory/thread samples for JobResult.ResourceUsage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch metrics
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rae_scheduler_job_runs_total",
			Help: "Total number of job runs by terminal status",
		},
		[]string{"job", "status"}, // status: job.Status value (Completed, Failed, Cancelled)
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rae_scheduler_job_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 600.0},
		},
		[]string{"job"},
	)

	JobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_last_run_seconds",
			Help: "Unix timestamp of the job's last run",
		},
		[]string{"job"},
	)

	JobNextRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_next_run_seconds",
			Help: "Unix timestamp of the job's next scheduled run, when predictable",
		},
		[]string{"job"},
	)

	JobLastExitCode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_last_exit_code",
			Help: "Exit code of the job's last run",
		},
		[]string{"job"},
	)

	JobRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rae_scheduler_job_retries_total",
			Help: "Total number of retry attempts issued after a failed run",
		},
		[]string{"job"},
	)

	// Queue metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_queue_depth",
			Help: "Number of jobs currently pending in the queue",
		},
	)

	// Resource metrics (sampled from the running job's OS process)
	JobCPUPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_cpu_percent",
			Help: "CPU usage percentage of the job's running process (per-core, can exceed 100)",
		},
		[]string{"job"},
	)

	JobMemoryBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_memory_bytes",
			Help: "Memory usage of the job's running process, in bytes",
		},
		[]string{"job", "type"}, // type: rss, vms
	)

	JobThreads = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_job_threads",
			Help: "Number of threads in the job's running process",
		},
		[]string{"job"},
	)

	ResourceCollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rae_scheduler_resource_collection_duration_seconds",
			Help:    "Time taken to sample a running job's resource usage",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	ResourceCollectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rae_scheduler_resource_collection_errors_total",
			Help: "Total resource sampling errors",
		},
		[]string{"job"},
	)

	// Build info
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rae_scheduler_build_info",
			Help: "rae scheduler build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordJobRun records a terminal job run and its duration.
func RecordJobRun(jobName, status string, duration float64) {
	JobRuns.WithLabelValues(jobName, status).Inc()
	JobDuration.WithLabelValues(jobName).Observe(duration)
}

// RecordJobLastRun records the timestamp of a job's last run.
func RecordJobLastRun(jobName string, timestamp float64) {
	JobLastRun.WithLabelValues(jobName).Set(timestamp)
}

// RecordJobNextRun records the timestamp of a job's next predictable run.
func RecordJobNextRun(jobName string, timestamp float64) {
	JobNextRun.WithLabelValues(jobName).Set(timestamp)
}

// RecordJobLastExitCode records a job's last exit code.
func RecordJobLastExitCode(jobName string, exitCode int) {
	JobLastExitCode.WithLabelValues(jobName).Set(float64(exitCode))
}

// RecordJobRetry records a retry attempt issued after a failed run.
func RecordJobRetry(jobName string) {
	JobRetries.WithLabelValues(jobName).Inc()
}

// SetQueueDepth sets the current number of pending jobs.
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// SetBuildInfo sets build information.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
