package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/parser"
)

// ValidationSeverity represents the severity level of a validation issue.
type ValidationSeverity string

const (
	SeverityError      ValidationSeverity = "error"      // Blocking, must be fixed
	SeverityWarning    ValidationSeverity = "warning"    // Non-blocking, should review
	SeveritySuggestion ValidationSeverity = "suggestion" // Best practice recommendation
)

// ValidationIssue represents a single validation problem.
type ValidationIssue struct {
	Severity   ValidationSeverity
	Field      string // Config field path (e.g., "global.log_level", "jobs.backup.command")
	Message    string
	Suggestion string
	JobName    string // Optional: which bootstrap job this relates to
}

// ValidationResult contains all validation issues found.
type ValidationResult struct {
	Errors      []ValidationIssue
	Warnings    []ValidationIssue
	Suggestions []ValidationIssue
}

// NewValidationResult creates an empty validation result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Errors:      []ValidationIssue{},
		Warnings:    []ValidationIssue{},
		Suggestions: []ValidationIssue{},
	}
}

func (vr *ValidationResult) AddError(field, message, suggestion string) {
	vr.Errors = append(vr.Errors, ValidationIssue{Severity: SeverityError, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) AddWarning(field, message, suggestion string) {
	vr.Warnings = append(vr.Warnings, ValidationIssue{Severity: SeverityWarning, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) AddSuggestion(field, message, suggestion string) {
	vr.Suggestions = append(vr.Suggestions, ValidationIssue{Severity: SeveritySuggestion, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) AddJobError(jobName, field, message, suggestion string) {
	vr.Errors = append(vr.Errors, ValidationIssue{
		Severity: SeverityError, Field: fmt.Sprintf("jobs.%s.%s", jobName, field),
		Message: message, Suggestion: suggestion, JobName: jobName,
	})
}

func (vr *ValidationResult) AddJobWarning(jobName, field, message, suggestion string) {
	vr.Warnings = append(vr.Warnings, ValidationIssue{
		Severity: SeverityWarning, Field: fmt.Sprintf("jobs.%s.%s", jobName, field),
		Message: message, Suggestion: suggestion, JobName: jobName,
	})
}

func (vr *ValidationResult) AddJobSuggestion(jobName, field, message, suggestion string) {
	vr.Suggestions = append(vr.Suggestions, ValidationIssue{
		Severity: SeveritySuggestion, Field: fmt.Sprintf("jobs.%s.%s", jobName, field),
		Message: message, Suggestion: suggestion, JobName: jobName,
	})
}

func (vr *ValidationResult) HasErrors() bool      { return len(vr.Errors) > 0 }
func (vr *ValidationResult) HasWarnings() bool    { return len(vr.Warnings) > 0 }
func (vr *ValidationResult) HasSuggestions() bool { return len(vr.Suggestions) > 0 }
func (vr *ValidationResult) TotalIssues() int {
	return len(vr.Errors) + len(vr.Warnings) + len(vr.Suggestions)
}

// ToError converts validation result to an error (only if errors exist).
func (vr *ValidationResult) ToError() error {
	if !vr.HasErrors() {
		return nil
	}
	lines := []string{fmt.Sprintf("configuration validation failed with %d error(s):", len(vr.Errors))}
	for _, err := range vr.Errors {
		lines = append(lines, fmt.Sprintf("  - [%s] %s", err.Field, err.Message))
		if err.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("    -> %s", err.Suggestion))
		}
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

// ValidateComprehensive runs every validation pass and returns both the
// full report and a blocking error if any Errors were recorded.
func (c *Config) ValidateComprehensive() (*ValidationResult, error) {
	result := NewValidationResult()

	c.validateGlobalSettings(result)
	c.validateJobs(result)
	c.lintConfiguration(result)
	c.validateSystem(result)

	if result.HasErrors() {
		return result, result.ToError()
	}
	return result, nil
}

func (c *Config) validateGlobalSettings(result *ValidationResult) {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Global.LogLevel) {
		result.AddError("global.log_level", fmt.Sprintf("invalid log level: %s", c.Global.LogLevel), fmt.Sprintf("must be one of: %s", strings.Join(validLogLevels, ", ")))
	} else if c.Global.LogLevel == "debug" {
		result.AddWarning("global.log_level", "debug logging in production may impact performance", "use 'info' for production deployments")
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Global.LogFormat) {
		result.AddError("global.log_format", fmt.Sprintf("invalid log format: %s", c.Global.LogFormat), fmt.Sprintf("must be one of: %s", strings.Join(validLogFormats, ", ")))
	} else if c.Global.LogFormat == "text" {
		result.AddSuggestion("global.log_format", "text format is not ideal for log aggregation", "consider 'json' for production with centralized logging")
	}

	if c.Global.WorkerCount < 1 {
		result.AddError("global.worker_count", fmt.Sprintf("invalid worker_count: %d", c.Global.WorkerCount), "must be at least 1")
	} else if c.Global.WorkerCount > 64 {
		result.AddSuggestion("global.worker_count", fmt.Sprintf("high worker_count (%d) may oversubscribe the host", c.Global.WorkerCount), "most workloads are well served by 4-16 workers")
	}

	if c.Global.TickInterval < 1 {
		result.AddError("global.tick_interval_seconds", "tick interval must be at least 1 second", "set to 1 for one-second scheduling precision")
	}

	if c.Global.MetricsEnabled {
		if c.Global.MetricsPort < 1024 && os.Getuid() != 0 {
			result.AddError("global.metrics_port", fmt.Sprintf("privileged port %d requires root", c.Global.MetricsPort), "use a port >= 1024")
		}
	}

	if c.Global.Tracing.Enabled {
		if c.Global.Tracing.Exporter != "otlp-grpc" && c.Global.Tracing.Exporter != "stdout" {
			result.AddError("global.tracing.exporter", fmt.Sprintf("invalid exporter: %s", c.Global.Tracing.Exporter), "must be one of: otlp-grpc, stdout")
		}
		if c.Global.Tracing.Exporter == "otlp-grpc" && c.Global.Tracing.Endpoint == "" {
			result.AddError("global.tracing.endpoint", "otlp-grpc exporter requires an endpoint", "set endpoint to the collector address (e.g., localhost:4317)")
		}
	}
}

func (c *Config) validateJobs(result *ValidationResult) {
	for name, j := range c.Jobs {
		if j.Command == "" {
			result.AddJobError(name, "command", "no command specified", "set command to an executable path")
			continue
		}
		if j.Cron == "" && j.At == "" {
			result.AddJobError(name, "cron", "bootstrap job has no cron or at trigger", "set either cron or at")
		}
		if j.Cron != "" {
			if _, err := parser.ParseCron(j.Cron); err != nil {
				result.AddJobError(name, "cron", fmt.Sprintf("invalid cron expression: %v", err), "use a standard 5-field or 6-field cron expression")
			}
		}
		if j.Timezone != "" {
			if _, err := parser.ParseTimezone(j.Timezone); err != nil {
				result.AddJobError(name, "timezone", fmt.Sprintf("invalid timezone: %v", err), "use an IANA timezone name (e.g., America/New_York)")
			}
		}
		if j.Priority != "" {
			if _, err := job.ParsePriority(j.Priority); err != nil {
				result.AddJobError(name, "priority", fmt.Sprintf("invalid priority: %s", j.Priority), "must be one of: low, normal, high, critical")
			}
		}
		if j.MaxAttempts < 0 {
			result.AddJobError(name, "max_attempts", "max_attempts cannot be negative", "set to 1 to disable retry, or a higher count")
		}
		for key, val := range j.Env {
			lowerKey := strings.ToLower(key)
			if strings.Contains(lowerKey, "password") || strings.Contains(lowerKey, "secret") || strings.Contains(lowerKey, "token") {
				if !strings.Contains(val, "$") {
					result.AddJobWarning(name, fmt.Sprintf("env.%s", key), "possible hardcoded secret in job environment", "use ${VAR} interpolation sourced from the process environment")
				}
			}
		}
		if len(j.Command) > 0 && (j.Command == "sh" || j.Command == "bash") && len(j.Args) > 0 && j.Args[0] == "-c" {
			result.AddJobSuggestion(name, "command", "job shells out via sh -c", "consider invoking the target binary directly for clearer failure modes")
		}
	}
}

func (c *Config) lintConfiguration(result *ValidationResult) {
	if !c.Global.MetricsEnabled {
		result.AddSuggestion("global.metrics_enabled", "metrics disabled", "enable metrics_enabled for Prometheus scraping of job throughput and failure rate")
	}
	for name, j := range c.Jobs {
		if j.Enabled != nil && !*j.Enabled {
			result.AddJobSuggestion(name, "enabled", "bootstrap job defined but disabled", "remove from config or enable to reduce clutter")
		}
	}
}

func (c *Config) validateSystem(result *ValidationResult) {
	if runtime.GOOS == "windows" {
		result.AddSuggestion("system.os", "Windows scheduling uses a different human-time locale for relative phrases", "verify human-time triggers against the host locale")
	}
}

func contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}
