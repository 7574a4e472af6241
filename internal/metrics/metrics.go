// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Feed assembly latency and cold-profile fallbacks
// - Interaction recording throughput
// - Preference recomputation pipeline
// - API endpoint latency and throughput

var (
	// Feed Metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed assembly requests",
		},
		[]string{"result"}, // "ok", "validation_error", "store_error"
	)

	FeedAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_assembly_duration_seconds",
			Help:    "Duration of feed assembly (scoring + diversification) in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	FeedColdFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cold_profile_fallbacks_total",
			Help: "Total number of feed requests served with quality-only ranking",
		},
	)

	FeedCandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_candidate_pool_size",
			Help:    "Number of candidates scored per feed request",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	// Interaction Recording Metrics
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of interaction events recorded",
		},
		[]string{"type"}, // "view", "favorite", "unfavorite", "search", "dwell"
	)

	InteractionRecordingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_recording_failures_total",
			Help: "Total number of failed interaction recordings",
		},
		[]string{"reason"}, // "validation", "store"
	)

	// Preference Recomputation Metrics
	RecomputeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_recompute_jobs_total",
			Help: "Total number of preference recomputation jobs processed",
		},
		[]string{"result"}, // "ok", "failed", "skipped"
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preference_recompute_duration_seconds",
			Help:    "Duration of preference profile recomputation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecomputeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preference_recompute_queue_depth",
			Help: "Current number of pending recomputation jobs",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// InitAppInfo sets the static build info gauge and starts the uptime ticker.
// Call once at startup.
func InitAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	start := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			AppUptime.Set(time.Since(start).Seconds())
		}
	}()
}

// RecordFeedRequest records the outcome and latency of a feed assembly.
func RecordFeedRequest(result string, candidates int, duration time.Duration) {
	FeedRequestsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		FeedAssemblyDuration.Observe(duration.Seconds())
		FeedCandidatePoolSize.Observe(float64(candidates))
	}
}

// RecordColdFallback records a feed served without personalization signal.
func RecordColdFallback() {
	FeedColdFallbacks.Inc()
}

// RecordInteraction records a successfully persisted interaction event.
func RecordInteraction(interactionType string) {
	InteractionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordInteractionFailure records a rejected or failed interaction.
func RecordInteractionFailure(reason string) {
	InteractionRecordingFailures.WithLabelValues(reason).Inc()
}

// RecordRecompute records a preference recomputation job outcome.
func RecordRecompute(result string, duration time.Duration) {
	RecomputeJobsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		RecomputeDuration.Observe(duration.Seconds())
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
