package config

import "testing"

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()

	if c.Version != "1.0" {
		t.Errorf("Version = %v, want 1.0", c.Version)
	}
	if c.Global.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", c.Global.LogLevel)
	}
	if c.Global.LogFormat != "text" {
		t.Errorf("LogFormat = %v, want text", c.Global.LogFormat)
	}
	if c.Global.WorkerCount != 4 {
		t.Errorf("WorkerCount = %v, want 4", c.Global.WorkerCount)
	}
	if c.Global.TickInterval != 1 {
		t.Errorf("TickInterval = %v, want 1", c.Global.TickInterval)
	}
	if c.Global.HealthCheckInterval != 30 {
		t.Errorf("HealthCheckInterval = %v, want 30", c.Global.HealthCheckInterval)
	}
	if c.Global.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %v, want 9090", c.Global.MetricsPort)
	}
	if c.Global.MetricsPath != "/metrics" {
		t.Errorf("MetricsPath = %v, want /metrics", c.Global.MetricsPath)
	}
	if c.Global.Tracing.ServiceName != "rae-scheduler" {
		t.Errorf("Tracing.ServiceName = %v, want rae-scheduler", c.Global.Tracing.ServiceName)
	}
	if c.Global.Tracing.Exporter != "stdout" {
		t.Errorf("Tracing.Exporter = %v, want stdout", c.Global.Tracing.Exporter)
	}
	if c.Global.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %v, want 1.0", c.Global.Tracing.SampleRate)
	}
}

func TestSetDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	c := &Config{Global: GlobalConfig{
		LogLevel:    "debug",
		LogFormat:   "json",
		WorkerCount: 16,
	}}
	c.SetDefaults()

	if c.Global.LogLevel != "debug" {
		t.Errorf("LogLevel was overridden: %v", c.Global.LogLevel)
	}
	if c.Global.LogFormat != "json" {
		t.Errorf("LogFormat was overridden: %v", c.Global.LogFormat)
	}
	if c.Global.WorkerCount != 16 {
		t.Errorf("WorkerCount was overridden: %v", c.Global.WorkerCount)
	}
}

func TestJobDef_EnabledDefaultsNilMeansEnabled(t *testing.T) {
	j := &JobDef{Command: "/bin/true", Cron: "* * * * *"}
	if j.Enabled != nil {
		t.Error("zero-value JobDef should leave Enabled nil (caller treats nil as enabled)")
	}
}
