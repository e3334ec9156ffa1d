// Package config loads the scheduler's YAML configuration: ambient
// settings (logging, workers, metrics, tracing) plus an optional jobs:
// bootstrap section, with environment-variable overrides and
// ${VAR}/${VAR:-default} shell-style expansion.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	envConfigPath      = "RAE_SCHEDULER_CONFIG"
	defaultConfigPath  = "/etc/rae-scheduler/scheduler.yaml"
	fallbackConfigPath = "./scheduler.yaml"
)

// Load resolves the config file path (RAE_SCHEDULER_CONFIG env var, else
// /etc/rae-scheduler/scheduler.yaml if present, else ./scheduler.yaml),
// expands environment references, applies env-var overrides, fills in
// defaults, and validates the result.
func Load() (*Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else {
			path = fallbackConfigPath
		}
	}
	return LoadWithEnvExpansion(path)
}

// LoadFile loads a config file at an explicit path, bypassing the
// RAE_SCHEDULER_CONFIG resolution in Load.
func LoadFile(path string) (*Config, error) {
	return LoadWithEnvExpansion(path)
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := ExpandEnv(string(data))
	return yaml.Unmarshal([]byte(expanded), cfg)
}

// Validate performs the blocking structural checks Load runs on every
// startup. ValidateComprehensive in validation.go runs the fuller
// error/warning/suggestion report.
func (c *Config) Validate() error {
	if c.Global.LogLevel != "debug" && c.Global.LogLevel != "info" &&
		c.Global.LogLevel != "warn" && c.Global.LogLevel != "error" {
		return fmt.Errorf("invalid global.log_level: %s", c.Global.LogLevel)
	}
	if c.Global.LogFormat != "json" && c.Global.LogFormat != "text" {
		return fmt.Errorf("invalid global.log_format: %s", c.Global.LogFormat)
	}
	if c.Global.WorkerCount < 1 {
		return fmt.Errorf("global.worker_count must be at least 1, got %d", c.Global.WorkerCount)
	}
	if c.Global.TickInterval < 1 {
		return fmt.Errorf("global.tick_interval_seconds must be at least 1")
	}
	for name, j := range c.Jobs {
		if j.Command == "" {
			return fmt.Errorf("jobs.%s: command is required", name)
		}
		if j.Cron == "" && j.At == "" {
			return fmt.Errorf("jobs.%s: must set cron or at", name)
		}
	}
	return nil
}

// applyEnvOverrides applies RAE_SCHEDULER_GLOBAL_<KEY> overrides onto
// the global settings. Bootstrap jobs have no per-job env override: the
// jobs: section only ever seeds the store on first run, so overriding
// it piecemeal via environment variables would be invisible after that.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_LOG_LEVEL"); v != "" {
		cfg.Global.LogLevel = v
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_LOG_FORMAT"); v != "" {
		cfg.Global.LogFormat = v
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_DATA_DIR"); v != "" {
		cfg.Global.DataDir = v
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Global.WorkerCount = n
		}
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_TICK_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Global.TickInterval = n
		}
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_METRICS_ENABLED"); v != "" {
		cfg.Global.MetricsEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Global.MetricsPort = n
		}
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_TRACING_ENABLED"); v != "" {
		cfg.Global.Tracing.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_TRACING_ENDPOINT"); v != "" {
		cfg.Global.Tracing.Endpoint = v
	}
	if v := os.Getenv("RAE_SCHEDULER_GLOBAL_REDACTION_ENABLED"); v != "" {
		cfg.Global.Redaction.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
}
