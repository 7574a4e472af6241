// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/immoflow/feedengine/internal/config"
	"github.com/immoflow/feedengine/internal/middleware"
)

// NewRouter assembles the chi router: global middleware, health probes,
// Prometheus scrape endpoint, and the versioned API surface.
func NewRouter(handlers *Handlers, cfg *config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health probes are unmetered so orchestrators are never rate limited.
	r.Group(func(r chi.Router) {
		r.Get("/health/live", handlers.HealthLive)
		r.Get("/health/ready", handlers.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/feed/{userID}", handlers.Feed)
		r.Post("/interactions", handlers.TrackInteraction)

		r.Route("/users/{userID}/preferences", func(r chi.Router) {
			r.Get("/", handlers.GetPreferences)
			r.Post("/recompute", handlers.RecomputePreferences)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", handlers.ListProperties)
			r.Get("/{propertyID}", handlers.GetProperty)
			r.Put("/{propertyID}", handlers.UpsertProperty)
		})
	})

	return r
}
