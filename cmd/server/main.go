// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

// Package main is the entry point for the feed engine server.
//
// The feed engine serves personalized property feeds: it records user
// interactions, derives per-user preference profiles from them, scores the
// active catalog against those profiles, and returns diversified rankings.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered load (env > config.yaml > defaults)
//  2. Database: embedded DuckDB with catalog, event, and preference tables
//  3. Feed core: recorder, aggregator, scoring engine
//  4. Worker: in-process recompute queue with rate limiting
//  5. HTTP Server: REST API behind a chi router
//
// All components run under a suture supervisor tree. SIGINT/SIGTERM trigger
// a graceful shutdown: the HTTP server drains in-flight requests (10s
// timeout), the worker stops consuming, and the database closes last.
//
// # Configuration
//
// Key environment variables (see internal/config for the full mapping):
//
//	HTTP_PORT=8094
//	DUCKDB_PATH=/data/feedengine.duckdb
//	FEED_DIVERSITY_FACTOR=0.3
//	WORKER_ENABLED=true
//	LOG_LEVEL=info
//	SEED_MOCK_DATA=true   # demo catalog + interactions
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/immoflow/feedengine/internal/api"
	"github.com/immoflow/feedengine/internal/config"
	"github.com/immoflow/feedengine/internal/database"
	"github.com/immoflow/feedengine/internal/feed"
	"github.com/immoflow/feedengine/internal/logging"
	"github.com/immoflow/feedengine/internal/metrics"
	"github.com/immoflow/feedengine/internal/supervisor"
	"github.com/immoflow/feedengine/internal/supervisor/services"
	"github.com/immoflow/feedengine/internal/worker"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Bool("worker_enabled", cfg.Worker.Enabled).
		Msg("Starting feed engine")
	metrics.InitAppInfo(version)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Database.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (SEED_MOCK_DATA=true)")
		if err := db.SeedMockData(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	catalog := db.Catalog()
	events := db.Events()
	prefs := db.Preferences()

	feedCfg := feedConfig(&cfg.Feed)
	logger := logging.Logger()

	engine, err := feed.NewEngine(catalog, events, prefs, feedCfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create feed engine")
	}
	recorder := feed.NewRecorder(events, logger)
	aggregator := feed.NewAggregator(events, catalog, prefs, feedCfg, logger)

	queue := worker.NewQueue(aggregator, cfg.Worker, logger)
	defer func() {
		if err := queue.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing recompute queue")
		}
	}()

	handlers := api.NewHandlers(engine, recorder, prefs, catalog, queue, db, logger)
	router := api.NewRouter(handlers, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Worker.Enabled {
		tree.AddWorkerService(services.NewWorkerService(queue))
		tree.AddWorkerService(services.NewRefreshService(events, queue, services.RefreshServiceConfig{
			Interval: cfg.Worker.RefreshInterval,
			Lookback: cfg.Worker.RefreshLookback,
		}, logger))
		logging.Info().Msg("Recompute worker and refresh scheduler added")
	} else {
		logging.Warn().Msg("Worker disabled - preference profiles will not refresh automatically")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// feedConfig maps the application configuration onto the feed core's policy
// struct. Zero values fall back to the core defaults so a sparse config file
// still yields a working engine.
func feedConfig(fc *config.FeedConfig) feed.Config {
	cfg := feed.DefaultConfig()

	if fc.MaxEvents > 0 {
		cfg.MaxEvents = fc.MaxEvents
	}
	if fc.RecencyDecay > 0 {
		cfg.RecencyDecay = fc.RecencyDecay
	}
	if fc.ColdThreshold > 0 {
		cfg.ColdThreshold = fc.ColdThreshold
	}
	if fc.DwellWeightThreshold > 0 {
		cfg.DwellWeightThreshold = fc.DwellWeightThreshold
	}
	if fc.RelevanceWeight > 0 || fc.QualityWeight > 0 {
		cfg.RelevanceWeight = fc.RelevanceWeight
		cfg.QualityWeight = fc.QualityWeight
	}
	if fc.DiversityFactor >= 0 && fc.DiversityFactor <= 1 {
		cfg.DiversityFactor = fc.DiversityFactor
	}
	if fc.TopLocations > 0 {
		cfg.TopLocations = fc.TopLocations
	}
	if fc.TopFeatures > 0 {
		cfg.TopFeatures = fc.TopFeatures
	}
	if fc.TopRooms > 0 {
		cfg.TopRooms = fc.TopRooms
	}
	if fc.DefaultLimit > 0 {
		cfg.DefaultLimit = fc.DefaultLimit
	}
	if fc.MaxLimit > 0 {
		cfg.MaxLimit = fc.MaxLimit
	}
	if fc.MaxCandidates > 0 {
		cfg.MaxCandidates = fc.MaxCandidates
	}
	return cfg
}
