// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ActiveUserLister returns the users with recorded interactions since a
// cutoff. Implemented by the database event store.
type ActiveUserLister interface {
	ActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)
}

// RecomputeEnqueuer schedules a background preference recompute.
type RecomputeEnqueuer interface {
	Enqueue(userID string) bool
}

// RefreshServiceConfig holds the periodic refresh settings.
type RefreshServiceConfig struct {
	// Interval between refresh sweeps. Non-positive disables the service.
	Interval time.Duration

	// Lookback selects which users count as recently active.
	Lookback time.Duration
}

// RefreshService periodically re-enqueues preference recomputation for
// recently active users. This keeps recency decay honest: profiles age
// correctly even for users who stop interacting, and it retries any
// recompute the queue dropped.
type RefreshService struct {
	users  ActiveUserLister
	queue  RecomputeEnqueuer
	config RefreshServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRefreshService creates a new refresh scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(users ActiveUserLister, queue RecomputeEnqueuer, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		users:  users,
		queue:  queue,
		config: cfg,
		logger: logger.With().Str("service", "refresh").Logger(),
		name:   "preference-refresh",
	}
}

// Serve implements the suture.Service interface.
func (s *RefreshService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.logger.Info().Msg("periodic refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("lookback", s.config.Lookback).
		Msg("preference refresh scheduler starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("preference refresh scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep enqueues one recompute per recently active user. Errors are logged
// and the sweep retried on the next tick.
func (s *RefreshService) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	since := time.Now().UTC().Add(-s.config.Lookback)
	userIDs, err := s.users.ActiveUserIDs(sweepCtx, since)
	if err != nil {
		s.logger.Warn().Err(err).Msg("refresh sweep failed to list active users")
		return
	}

	queued := 0
	for _, userID := range userIDs {
		if s.queue.Enqueue(userID) {
			queued++
		}
	}

	s.logger.Debug().
		Int("active_users", len(userIDs)).
		Int("queued", queued).
		Msg("refresh sweep completed")
}

// String returns the service name for logging.
func (s *RefreshService) String() string {
	return s.name
}
