package config

import (
	"strings"
	"testing"
)

func TestNewValidationResult(t *testing.T) {
	result := NewValidationResult()
	if result == nil {
		t.Fatal("NewValidationResult returned nil")
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 || len(result.Suggestions) != 0 {
		t.Error("NewValidationResult should start empty")
	}
}

func TestValidationResult_AddError(t *testing.T) {
	result := NewValidationResult()
	result.AddError("test.field", "test message", "test suggestion")

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	err := result.Errors[0]
	if err.Severity != SeverityError || err.Field != "test.field" || err.Message != "test message" || err.Suggestion != "test suggestion" {
		t.Errorf("unexpected error contents: %+v", err)
	}
}

func TestValidationResult_AddJobError(t *testing.T) {
	result := NewValidationResult()
	result.AddJobError("backup", "command", "missing command", "add a command")

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	err := result.Errors[0]
	if err.Field != "jobs.backup.command" {
		t.Errorf("Field = %q, want jobs.backup.command", err.Field)
	}
	if err.JobName != "backup" {
		t.Errorf("JobName = %q, want backup", err.JobName)
	}
}

func TestValidationResult_Counts(t *testing.T) {
	result := NewValidationResult()
	result.AddError("e", "m", "s")
	result.AddWarning("w", "m", "s")
	result.AddSuggestion("g", "m", "s")

	if !result.HasErrors() || !result.HasWarnings() || !result.HasSuggestions() {
		t.Error("expected all Has* to report true")
	}
	if result.TotalIssues() != 3 {
		t.Errorf("TotalIssues() = %d, want 3", result.TotalIssues())
	}
}

func TestValidationResult_ToError(t *testing.T) {
	result := NewValidationResult()
	if err := result.ToError(); err != nil {
		t.Errorf("ToError() = %v, want nil for no errors", err)
	}

	result.AddError("jobs.backup.command", "missing command", "set a command")
	err := result.ToError()
	if err == nil {
		t.Fatal("ToError() = nil, want error")
	}
	if !strings.Contains(err.Error(), "jobs.backup.command") {
		t.Errorf("error message missing field: %v", err)
	}
}

func TestConfig_ValidateComprehensive(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		wantField string
	}{
		{
			name: "valid config, no issues beyond suggestions",
			cfg: Config{Global: GlobalConfig{
				LogLevel: "info", LogFormat: "json", WorkerCount: 4, TickInterval: 1, MetricsEnabled: true, MetricsPort: 9090,
			}},
		},
		{
			name:      "invalid log level",
			cfg:       Config{Global: GlobalConfig{LogLevel: "trace", LogFormat: "json", WorkerCount: 4, TickInterval: 1}},
			wantErr:   true,
			wantField: "global.log_level",
		},
		{
			name: "job with bad cron expression",
			cfg: Config{
				Global: GlobalConfig{LogLevel: "info", LogFormat: "json", WorkerCount: 4, TickInterval: 1},
				Jobs:   map[string]*JobDef{"bad": {Command: "/bin/true", Cron: "not a cron"}},
			},
			wantErr:   true,
			wantField: "jobs.bad.cron",
		},
		{
			name: "job with invalid priority",
			cfg: Config{
				Global: GlobalConfig{LogLevel: "info", LogFormat: "json", WorkerCount: 4, TickInterval: 1},
				Jobs:   map[string]*JobDef{"bad": {Command: "/bin/true", Cron: "* * * * *", Priority: "urgent"}},
			},
			wantErr:   true,
			wantField: "jobs.bad.priority",
		},
		{
			name: "tracing enabled with otlp-grpc but no endpoint",
			cfg: Config{Global: GlobalConfig{
				LogLevel: "info", LogFormat: "json", WorkerCount: 4, TickInterval: 1,
				Tracing: Tracing{Enabled: true, Exporter: "otlp-grpc"},
			}},
			wantErr:   true,
			wantField: "global.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.cfg.ValidateComprehensive()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateComprehensive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantField != "" {
				found := false
				for _, e := range result.Errors {
					if e.Field == tt.wantField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected an error for field %q, got %+v", tt.wantField, result.Errors)
				}
			}
		})
	}
}

func TestConfig_ValidateComprehensive_WarnsOnHardcodedSecret(t *testing.T) {
	cfg := Config{
		Global: GlobalConfig{LogLevel: "info", LogFormat: "json", WorkerCount: 4, TickInterval: 1},
		Jobs: map[string]*JobDef{
			"deploy": {
				Command: "/usr/bin/deploy",
				Cron:    "* * * * *",
				Env:     map[string]string{"API_TOKEN": "hardcoded-literal-value"},
			},
		},
	}

	result, err := cfg.ValidateComprehensive()
	if err != nil {
		t.Fatalf("ValidateComprehensive() error = %v, want nil (warning only)", err)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w.Field, "env.API_TOKEN") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning about hardcoded secret, got %+v", result.Warnings)
	}
}
