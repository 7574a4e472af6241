// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

// Package config provides layered application configuration via Koanf v2.
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Feed     FeedConfig     `koanf:"feed"`
	Worker   WorkerConfig   `koanf:"worker"`
	Logging  LoggingConfig  `koanf:"logging"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
	// SeedMockData populates a small development catalog on startup.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// FeedConfig holds the ranking policy constants. All values are tunable
// defaults, not bit-exact requirements.
type FeedConfig struct {
	// MaxEvents is how many recent events the aggregator replays per user.
	MaxEvents int `koanf:"max_events"`
	// RecencyDecay is the per-day exponential down-weighting of old events.
	RecencyDecay float64 `koanf:"recency_decay"`
	// ColdThreshold is the minimum interaction count for a personalized profile.
	ColdThreshold int `koanf:"cold_threshold"`
	// DwellWeightThreshold is the dwell duration above which a dwell event
	// counts as a strong signal.
	DwellWeightThreshold time.Duration `koanf:"dwell_weight_threshold"`

	// RelevanceWeight and QualityWeight blend the two score components.
	// They must sum to 1.
	RelevanceWeight float64 `koanf:"relevance_weight"`
	QualityWeight   float64 `koanf:"quality_weight"`

	// DiversityFactor is the default MMR tradeoff when the request omits one.
	DiversityFactor float64 `koanf:"diversity_factor"`

	// TopLocations, TopFeatures and TopRooms bound the profile multisets.
	TopLocations int `koanf:"top_locations"`
	TopFeatures  int `koanf:"top_features"`
	TopRooms     int `koanf:"top_rooms"`

	// DefaultLimit and MaxLimit bound feed sizes.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// MaxCandidates caps the candidate pool fetched per request.
	MaxCandidates int `koanf:"max_candidates"`
}

// WorkerConfig holds the background preference recompute settings.
type WorkerConfig struct {
	// Enabled controls whether interactions enqueue recompute jobs.
	Enabled bool `koanf:"enabled"`
	// Buffer is the in-process queue capacity.
	Buffer int `koanf:"buffer"`
	// RecomputesPerSecond throttles recompute jobs across all users.
	RecomputesPerSecond float64 `koanf:"recomputes_per_second"`
	// RefreshInterval is how often the scheduler re-aggregates profiles for
	// recently active users. 0 disables the scheduler.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// RefreshLookback selects which users count as recently active.
	RefreshLookback time.Duration `koanf:"refresh_lookback"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateFeed() error {
	f := &c.Feed
	if f.MaxEvents <= 0 {
		return fmt.Errorf("feed.max_events must be positive, got %d", f.MaxEvents)
	}
	if f.RecencyDecay <= 0 || f.RecencyDecay > 1 {
		return fmt.Errorf("feed.recency_decay must be in (0,1], got %g", f.RecencyDecay)
	}
	if sum := f.RelevanceWeight + f.QualityWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("feed.relevance_weight + feed.quality_weight must sum to 1, got %g", sum)
	}
	if f.DiversityFactor < 0 || f.DiversityFactor > 1 {
		return fmt.Errorf("feed.diversity_factor must be in [0,1], got %g", f.DiversityFactor)
	}
	if f.DefaultLimit <= 0 || f.MaxLimit < f.DefaultLimit {
		return fmt.Errorf("feed limits invalid: default=%d max=%d", f.DefaultLimit, f.MaxLimit)
	}
	return nil
}

func (c *Config) validateWorker() error {
	if !c.Worker.Enabled {
		return nil
	}
	if c.Worker.Buffer <= 0 {
		return fmt.Errorf("worker.buffer must be positive, got %d", c.Worker.Buffer)
	}
	if c.Worker.RecomputesPerSecond <= 0 {
		return fmt.Errorf("worker.recomputes_per_second must be positive, got %g", c.Worker.RecomputesPerSecond)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
