package metrics

import (
	"testing"
	"time"
)

// TestRecordJobRun tests recording a terminal job run.
func TestRecordJobRun(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		status   string
		duration float64
	}{
		{name: "completed backup job", jobName: "backup", status: "completed", duration: 1.5},
		{name: "failed deploy job", jobName: "deploy", status: "failed", duration: 0.2},
		{name: "cancelled report job", jobName: "report", status: "cancelled", duration: 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Should not panic and should update the counter/histogram.
			RecordJobRun(tt.jobName, tt.status, tt.duration)
		})
	}
}

func TestRecordJobLastRun(t *testing.T) {
	RecordJobLastRun("backup", float64(time.Now().Unix()))
}

func TestRecordJobNextRun(t *testing.T) {
	RecordJobNextRun("backup", float64(time.Now().Add(time.Hour).Unix()))
}

func TestRecordJobLastExitCode(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		exitCode int
	}{
		{name: "success", jobName: "backup", exitCode: 0},
		{name: "failure", jobName: "deploy", exitCode: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordJobLastExitCode(tt.jobName, tt.exitCode)
		})
	}
}

func TestRecordJobRetry(t *testing.T) {
	RecordJobRetry("flaky-job")
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth(5)
	SetQueueDepth(0)
}

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("1.0.0", "go1.24")
}
