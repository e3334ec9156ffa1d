package config

import (
	"github.com/rae-systems/scheduler/internal/logger"
	"github.com/rae-systems/scheduler/internal/store"
)

// Config is the scheduler's complete configuration: ambient settings
// plus a jobs: bootstrap section the scheduler seeds into persistence
// on first run if the store is empty.
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Global  GlobalConfig  `yaml:"global" json:"global"`
	Jobs    map[string]*JobDef `yaml:"jobs" json:"jobs"`
}

// GlobalConfig holds the ambient settings every component reads at
// startup.
type GlobalConfig struct {
	DataDir             string  `yaml:"data_dir" json:"data_dir"`
	LogLevel            string  `yaml:"log_level" json:"log_level"`   // debug | info | warn | error
	LogFormat           string  `yaml:"log_format" json:"log_format"` // json | text
	WorkerCount         int     `yaml:"worker_count" json:"worker_count"`
	TickInterval        int     `yaml:"tick_interval_seconds" json:"tick_interval_seconds"`
	HealthCheckInterval int     `yaml:"health_check_interval_seconds" json:"health_check_interval_seconds"`
	MetricsEnabled      bool    `yaml:"metrics_enabled" json:"metrics_enabled"`
	MetricsPort         int     `yaml:"metrics_port" json:"metrics_port"`
	MetricsPath         string  `yaml:"metrics_path" json:"metrics_path"`
	Tracing             Tracing `yaml:"tracing" json:"tracing"`
	Redaction           logger.RedactionConfig `yaml:"redaction" json:"redaction"`
}

// Tracing configures the OpenTelemetry exporter, mirroring the
// teacher's internal/tracing.TracerConfig shape.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Exporter    string  `yaml:"exporter" json:"exporter"` // otlp-grpc | stdout
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	UseTLS      bool    `yaml:"use_tls" json:"use_tls"`
}

// JobDef is a bootstrap job definition in the jobs: config section,
// seeded into persistence on first run. It mirrors job.Job's shape but
// keeps its own YAML tags since the persisted form uses JSON.
type JobDef struct {
	Description    string            `yaml:"description" json:"description"`
	Cron           string            `yaml:"cron" json:"cron"`
	At             string            `yaml:"at" json:"at"`
	Timezone       string            `yaml:"timezone" json:"timezone"`
	Command        string            `yaml:"command" json:"command"`
	Args           []string          `yaml:"args" json:"args"`
	WorkingDir     string            `yaml:"working_dir" json:"working_dir"`
	Env            map[string]string `yaml:"env" json:"env"`
	Priority       string            `yaml:"priority" json:"priority"`
	Enabled        *bool             `yaml:"enabled" json:"enabled"`
	MaxAttempts    int               `yaml:"max_attempts" json:"max_attempts"`
	DelaySeconds   int               `yaml:"delay_seconds" json:"delay_seconds"`
	MaxDelaySeconds int              `yaml:"max_delay_seconds" json:"max_delay_seconds"`
}

// SetDefaults fills in sensible defaults for any field left zero.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Global.DataDir == "" {
		if dir, err := store.DefaultDataDir(); err == nil {
			c.Global.DataDir = dir
		}
	}
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = "info"
	}
	if c.Global.LogFormat == "" {
		c.Global.LogFormat = "text"
	}
	if c.Global.WorkerCount == 0 {
		c.Global.WorkerCount = 4
	}
	if c.Global.TickInterval == 0 {
		c.Global.TickInterval = 1
	}
	if c.Global.HealthCheckInterval == 0 {
		c.Global.HealthCheckInterval = 30
	}
	if c.Global.MetricsPort == 0 {
		c.Global.MetricsPort = 9090
	}
	if c.Global.MetricsPath == "" {
		c.Global.MetricsPath = "/metrics"
	}
	if c.Global.Tracing.ServiceName == "" {
		c.Global.Tracing.ServiceName = "rae-scheduler"
	}
	if c.Global.Tracing.Exporter == "" {
		c.Global.Tracing.Exporter = "stdout"
	}
	if c.Global.Tracing.SampleRate == 0 {
		c.Global.Tracing.SampleRate = 1.0
	}
}
