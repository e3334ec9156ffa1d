// Package job defines the persisted and in-memory shape of a scheduled
// unit of work: identity, trigger schedule, command, retry policy,
// advisory resource limits, and the bookkeeping each lifecycle stage
// attaches to it.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority orders dispatch within a tick: higher values go first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// ParsePriority accepts the glossary's canonical names, case-insensitive.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "normal", "":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	default:
		return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
}

// EventType enumerates the file/system events a Schedule can react to.
type EventType string

const (
	EventFileCreated      EventType = "FileCreated"
	EventFileModified     EventType = "FileModified"
	EventFileDeleted      EventType = "FileDeleted"
	EventSystemStartup    EventType = "SystemStartup"
	EventSystemShutdown   EventType = "SystemShutdown"
	EventCustomPrefix     EventType = "Custom:"
)

// IsFileEvent reports whether the event type requires Path to be set.
func (e EventType) IsFileEvent() bool {
	return e == EventFileCreated || e == EventFileModified || e == EventFileDeleted
}

// EventTrigger fires a job on an observed filesystem or lifecycle event.
type EventTrigger struct {
	EventType EventType `json:"event_type"`
	Path      string    `json:"path,omitempty"`
	Filter    string    `json:"filter,omitempty"`
}

// PatternType enumerates the resource-pattern triggers a Schedule supports.
type PatternType string

const (
	PatternHighCPUUsage       PatternType = "HighCpuUsage"
	PatternHighMemoryUsage    PatternType = "HighMemoryUsage"
	PatternFrequentFileAccess PatternType = "FrequentFileAccess"
	PatternCustomPrefix       PatternType = "Custom:"
)

// PatternTrigger fires a job when an observed metric crosses a threshold
// within a sliding window.
type PatternTrigger struct {
	PatternType PatternType   `json:"pattern_type"`
	Threshold   float64       `json:"threshold"`
	Window      time.Duration `json:"window"`
}

// Schedule is a tagged disjunction of trigger specifications. Any subset
// of Cron/At/Event/Pattern may be set; at least one must be present for
// a job to ever run. Cron and At may be combined; Event and Pattern are
// mutually exclusive with each other and with Cron/At in practice, but
// the type itself does not forbid combinations the parser rejects.
type Schedule struct {
	Cron     string          `json:"cron,omitempty"`
	At       *time.Time      `json:"at,omitempty"`
	Event    *EventTrigger   `json:"event,omitempty"`
	Pattern  *PatternTrigger `json:"pattern,omitempty"`
	Timezone string          `json:"timezone,omitempty"`
}

// HasTrigger reports whether any trigger source is present.
func (s Schedule) HasTrigger() bool {
	return s.Cron != "" || s.At != nil || s.Event != nil || s.Pattern != nil
}

// IsUnpredictable reports whether the schedule's next occurrence cannot
// be computed in advance (event/pattern triggers are "always due").
func (s Schedule) IsUnpredictable() bool {
	return s.Cron == "" && s.At == nil && (s.Event != nil || s.Pattern != nil)
}

// RetryPolicy controls re-dispatch of a failing job.
type RetryPolicy struct {
	MaxAttempts        int            `json:"max_attempts"`
	DelaySeconds       int            `json:"delay_seconds"`
	ExponentialBackoff bool           `json:"exponential_backoff"`
	MaxDelaySeconds    *int           `json:"max_delay_seconds,omitempty"`
}

// DefaultRetryPolicy mirrors spec default: 3 attempts, 60s base delay,
// exponential backoff capped at 1 hour.
func DefaultRetryPolicy() RetryPolicy {
	maxDelay := 3600
	return RetryPolicy{
		MaxAttempts:        3,
		DelaySeconds:       60,
		ExponentialBackoff: true,
		MaxDelaySeconds:    &maxDelay,
	}
}

// ResourceLimits are advisory only; none are enforced by the kernel.
// max_duration_seconds is the sole field the executor turns into a hard
// kill, per the design notes.
type ResourceLimits struct {
	MaxCPUPercent     *float64 `json:"max_cpu_percent,omitempty"`
	MaxMemoryMB       *float64 `json:"max_memory_mb,omitempty"`
	MaxDurationSecond *int     `json:"max_duration_seconds,omitempty"`
	MaxDiskIOMBPerSec *float64 `json:"max_disk_io_mb_per_s,omitempty"`
}

// Status is the lifecycle state of a single job run (or, for recurring
// triggers, the job's current cycle).
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
	StatusRetrying  Status = "Retrying"
)

// Terminal reports whether status represents the end of a single run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ID is an opaque, globally unique job identifier, stable across restart.
type ID string

// NewID mints a canonical UUIDv4 job identifier.
func NewID() ID {
	return ID(uuid.New().String())
}

// Job is the persisted definition plus enablement flag. The persisted
// copy is canonical; queue and monitor hold derived copies.
type Job struct {
	ID             ID                `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Schedule       Schedule          `json:"schedule"`
	Command        string            `json:"command"`
	Args           []string          `json:"args,omitempty"`
	WorkingDir     string            `json:"working_dir,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	RetryPolicy    RetryPolicy       `json:"retry_policy"`
	Priority       Priority          `json:"priority"`
	ResourceLimits ResourceLimits    `json:"resource_limits"`
	Enabled        bool              `json:"enabled"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// New builds a job with sensible defaults (normal priority, default
// retry policy, enabled) and fresh timestamps. Callers still must run
// it through the parser's Validate before persisting.
func New(name, command string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          NewID(),
		Name:        name,
		Command:     command,
		RetryPolicy: DefaultRetryPolicy(),
		Priority:    PriorityNormal,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// WithSchedule sets the trigger specification (builder style).
func (j *Job) WithSchedule(s Schedule) *Job {
	j.Schedule = s
	return j
}

// WithArgs sets the command arguments (builder style).
func (j *Job) WithArgs(args ...string) *Job {
	j.Args = args
	return j
}

// WithPriority sets dispatch priority (builder style).
func (j *Job) WithPriority(p Priority) *Job {
	j.Priority = p
	return j
}

// WithEnv overlays environment variables (builder style).
func (j *Job) WithEnv(env map[string]string) *Job {
	j.Env = env
	return j
}

// touch updates UpdatedAt to the current time. Exported as Touch so the
// facade and CLI can call it across package boundaries.
func (j *Job) Touch() {
	j.UpdatedAt = time.Now().UTC()
}

// ShouldExecuteNow is a pure, quick-gating predicate over wall clock and
// the schedule. It does not replace next_execution-based scheduling
// decisions — those live in the parser — but is cheap enough to call
// from a hot path that just needs a yes/no.
func (j *Job) ShouldExecuteNow(now time.Time) bool {
	if !j.Enabled {
		return false
	}
	if j.Schedule.IsUnpredictable() {
		return true
	}
	if j.Schedule.At != nil && !j.Schedule.At.After(now) {
		return true
	}
	return false
}

// Validate checks the structural invariants spec.md §3 assigns to Job
// itself (cron/timezone syntax validation is the parser's job, not
// this package's — job only owns shape, not grammar).
func (j *Job) Validate() error {
	if j.Command == "" {
		return fmt.Errorf("%w: command must not be empty", ErrValidation)
	}
	if !j.Schedule.HasTrigger() {
		return fmt.Errorf("%w: at least one trigger source must be present", ErrValidation)
	}
	triggerCount := 0
	if j.Schedule.Event != nil {
		triggerCount++
		if j.Schedule.Event.EventType.IsFileEvent() && j.Schedule.Event.Path == "" {
			return fmt.Errorf("%w: file event trigger requires a path", ErrValidation)
		}
	}
	if j.Schedule.Pattern != nil {
		triggerCount++
		if j.Schedule.Pattern.Threshold < 0 {
			return fmt.Errorf("%w: pattern threshold must be >= 0", ErrValidation)
		}
		if j.Schedule.Pattern.Window <= 0 {
			return fmt.Errorf("%w: pattern window must be > 0", ErrValidation)
		}
	}
	if triggerCount > 1 {
		return fmt.Errorf("%w: at most one of event or pattern trigger may be set", ErrValidation)
	}
	if j.RetryPolicy.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry_policy.max_attempts must be >= 1", ErrValidation)
	}
	if j.RetryPolicy.DelaySeconds < 0 {
		return fmt.Errorf("%w: retry_policy.delay_seconds must be >= 0", ErrValidation)
	}
	return nil
}

// ResourceUsage is populated on a best-effort basis by the metrics
// package; zero values are acceptable placeholders when the platform
// does not expose the measurement.
type ResourceUsage struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryMB    float64 `json:"memory_mb"`
	ThreadCount int32   `json:"thread_count"`
	DiskIOMBPS  float64 `json:"disk_io_mb_per_s"`
}

// Result is the per-invocation record the executor produces.
type Result struct {
	JobID         ID             `json:"job_id"`
	Attempt       int            `json:"attempt"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty"`
	ExitCode      *int           `json:"exit_code,omitempty"`
	Stdout        string         `json:"stdout"`
	Stderr        string         `json:"stderr"`
	Status        Status         `json:"status"`
	Error         string         `json:"error,omitempty"`
	ResourceUsage *ResourceUsage `json:"resource_usage,omitempty"`
}

// Health is the monitor's per-job liveness snapshot.
type Health struct {
	JobID                   ID         `json:"job_id"`
	Status                  Status     `json:"status"`
	LastCheck               time.Time  `json:"last_check"`
	ExecutionCount          int64      `json:"execution_count"`
	FailureCount            int64      `json:"failure_count"`
	AverageDurationSeconds  float64    `json:"average_duration_seconds"`
	LastExecution           *time.Time `json:"last_execution,omitempty"`
}

// FailureRate is failure_count / execution_count, or 0 when no
// executions have happened yet.
func (h Health) FailureRate() float64 {
	if h.ExecutionCount == 0 {
		return 0
	}
	return float64(h.FailureCount) / float64(h.ExecutionCount)
}
