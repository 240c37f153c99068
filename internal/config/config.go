// Package config provides configuration management for proflog.
package config

import "time"

// Config holds all options for a proflog run.
type Config struct {
	// Command is the child's argument vector (positional arguments).
	Command []string `json:"command"`

	// Process
	WorkDir string `json:"workdir"`
	SetUID  int    `json:"setuid"` // -1 = no drop
	SetGID  int    `json:"setgid"` // -1 = no drop

	// Display
	PollInterval time.Duration `json:"poll_interval"`

	// Sampling
	NoSample       bool          `json:"no_sample"`
	SampleInterval time.Duration `json:"sample_interval"`
	TraceExtra     bool          `json:"trace_extra"`
	TraceDepth     int           `json:"trace_depth"` // 0 = payload default
	TracePackages  []string      `json:"trace_packages"`

	// Observability
	Summary     bool   `json:"summary"`
	MetricsAddr string `json:"metrics_addr"` // "" = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // text, json
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SetUID: -1,
		SetGID: -1,

		PollInterval: 50 * time.Millisecond,

		SampleInterval: 500 * time.Millisecond,
		TraceDepth:     0,

		Summary:   false,
		LogFormat: "text",
	}
}
