// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"port zero",
			func(c *Config) { c.Server.Port = 0 },
			"server.port",
		},
		{
			"port above range",
			func(c *Config) { c.Server.Port = 70000 },
			"server.port",
		},
		{
			"non-positive timeout",
			func(c *Config) { c.Server.Timeout = 0 },
			"server.timeout",
		},
		{
			"max events zero",
			func(c *Config) { c.Feed.MaxEvents = 0 },
			"feed.max_events",
		},
		{
			"decay above one",
			func(c *Config) { c.Feed.RecencyDecay = 1.5 },
			"feed.recency_decay",
		},
		{
			"score weights do not sum to one",
			func(c *Config) { c.Feed.RelevanceWeight = 0.9 },
			"sum to 1",
		},
		{
			"diversity factor out of range",
			func(c *Config) { c.Feed.DiversityFactor = 1.2 },
			"feed.diversity_factor",
		},
		{
			"max limit below default limit",
			func(c *Config) { c.Feed.MaxLimit = 5 },
			"feed limits invalid",
		},
		{
			"worker buffer zero",
			func(c *Config) { c.Worker.Buffer = 0 },
			"worker.buffer",
		},
		{
			"worker rate zero",
			func(c *Config) { c.Worker.RecomputesPerSecond = 0 },
			"worker.recomputes_per_second",
		},
		{
			"unknown log level",
			func(c *Config) { c.Logging.Level = "verbose" },
			"logging.level",
		},
		{
			"unknown log format",
			func(c *Config) { c.Logging.Format = "xml" },
			"logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_DisabledWorkerSkipsWorkerChecks(t *testing.T) {
	cfg := defaultConfig()
	cfg.Worker.Enabled = false
	cfg.Worker.Buffer = 0
	cfg.Worker.RecomputesPerSecond = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with worker disabled", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"FEED_DIVERSITY_FACTOR", "feed.diversity_factor"},
		{"WORKER_ENABLED", "worker.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"CORS_ORIGINS", "api.cors_origins"},
		// Unmapped variables must be dropped, not passed through.
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}
