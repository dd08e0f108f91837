// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package config loads CLOE configuration with layered sources:
// built-in defaults, then an optional YAML file, then CLOE_-prefixed
// environment variables. Precedence: ENV > file > defaults.
//
// A missing setting never blocks execution; every field has a documented
// default. Validation at load time is the engine's only fail-fast point.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the engine.
type Config struct {
	Server    ServerConfig    `koanf:"server" validate:"required"`
	Store     StoreConfig     `koanf:"store" validate:"required"`
	Tracking  TrackingConfig  `koanf:"tracking" validate:"required"`
	Trend     TrendConfig     `koanf:"trend" validate:"required"`
	Recommend RecommendConfig `koanf:"recommend" validate:"required"`
	Reports   ReportsConfig   `koanf:"reports" validate:"required"`
	Logging   LoggingConfig   `koanf:"logging" validate:"required"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// RateLimitReqs is the per-IP request budget per RateLimitWindow.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// StoreConfig configures the BadgerDB store.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`

	// InMemory runs the store without disk persistence. Development only.
	InMemory bool `koanf:"in_memory"`
}

// TrackingConfig configures event recording and session tracking.
type TrackingConfig struct {
	// SessionTimeout closes a session when no activity arrives within it.
	SessionTimeout time.Duration `koanf:"session_timeout" validate:"min=1s"`
}

// TrendConfig configures the external trend feed client and cache.
type TrendConfig struct {
	// BaseURL is the trend feed endpoint; source id is appended as a path
	// segment.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Sources lists the curated feed sources polled by the correlator.
	Sources []string `koanf:"sources" validate:"min=1"`

	// FetchTimeout bounds one feed request.
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"min=1s"`

	// RatePerSecond limits outbound feed requests.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gt=0"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	// DefaultLimit applies when the caller omits a limit.
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`

	// MaxLimit caps the number of items a single call may request.
	MaxLimit int `koanf:"max_limit" validate:"min=1"`

	// Seed seeds sampling paths for reproducibility. Zero picks the
	// built-in default seed.
	Seed int64 `koanf:"seed"`
}

// ReportsConfig configures the report scheduler.
type ReportsConfig struct {
	Enabled bool `koanf:"enabled"`

	// CheckInterval is how often the scheduler looks for due cadences.
	CheckInterval time.Duration `koanf:"check_interval" validate:"min=1s"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns a Config with all default values applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8337,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Path:     "/data/cloe",
			InMemory: false,
		},
		Tracking: TrackingConfig{
			SessionTimeout: 1800 * time.Second,
		},
		Trend: TrendConfig{
			BaseURL:       "https://trends.atelier-labs.io/v1/feeds",
			Sources:       []string{"feed-a", "feed-b", "feed-c", "feed-d"},
			FetchTimeout:  10 * time.Second,
			RatePerSecond: 2,
		},
		Recommend: RecommendConfig{
			DefaultLimit: 10,
			MaxLimit:     50,
			Seed:         0,
		},
		Reports: ReportsConfig{
			Enabled:       true,
			CheckInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// validate is the shared validator instance; Config carries declarative
// constraints via struct tags.
var validate = validator.New()

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("config validation: recommend.default_limit %d exceeds max_limit %d",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}

	return nil
}
