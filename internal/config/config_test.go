// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"no trend sources", func(c *Config) { c.Trend.Sources = nil }},
		{"bad trend url", func(c *Config) { c.Trend.BaseURL = "not a url" }},
		{"default limit above max", func(c *Config) { c.Recommend.DefaultLimit = 100; c.Recommend.MaxLimit = 10 }},
		{"zero session timeout", func(c *Config) { c.Tracking.SessionTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"CLOE_SERVER_PORT", "server.port"},
		{"CLOE_TREND_BASE_URL", "trend.base_url"},
		{"CLOE_TRACKING_SESSION_TIMEOUT", "tracking.session_timeout"},
		{"CLOE_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransform(tt.input); got != tt.want {
				t.Errorf("envTransform(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloe.yaml")
	yaml := `
server:
  port: 9100
tracking:
  session_timeout: 600s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CLOE_SERVER_PORT", "9200")
	t.Setenv("CLOE_TREND_SOURCES", "feed-a, feed-b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Env beats file.
	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want 9200 (env override)", cfg.Server.Port)
	}

	// File beats defaults.
	if cfg.Tracking.SessionTimeout != 600*time.Second {
		t.Errorf("Tracking.SessionTimeout = %v, want 600s (file override)", cfg.Tracking.SessionTimeout)
	}

	// Untouched fields keep defaults.
	if cfg.Recommend.DefaultLimit != 10 {
		t.Errorf("Recommend.DefaultLimit = %d, want default 10", cfg.Recommend.DefaultLimit)
	}

	// Comma-separated env slice.
	if len(cfg.Trend.Sources) != 2 || cfg.Trend.Sources[0] != "feed-a" || cfg.Trend.Sources[1] != "feed-b" {
		t.Errorf("Trend.Sources = %v, want [feed-a feed-b]", cfg.Trend.Sources)
	}
}
