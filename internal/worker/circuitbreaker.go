// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package worker

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/immoflow/feedengine/internal/feed"
	"github.com/immoflow/feedengine/internal/metrics"
)

type recomputeBreaker = gobreaker.CircuitBreaker[*feed.PreferenceProfile]

const breakerName = "preference-recompute"

// newRecomputeBreaker protects the aggregator against a degraded store:
// once recomputes fail consecutively the breaker opens and jobs fail fast
// instead of piling up on a database that is already struggling.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newRecomputeBreaker(logger zerolog.Logger) *recomputeBreaker {
	log := logger.With().Str("component", "worker-breaker").Logger()

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return gobreaker.NewCircuitBreaker[*feed.PreferenceProfile](settings)
}

// recordBreakerResult classifies one pass through the breaker for metrics.
func recordBreakerResult(err error) {
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
