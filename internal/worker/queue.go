// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

// Package worker runs preference recomputation off the request path. Jobs
// flow through an in-process watermill pub/sub channel; failures are logged
// and counted but never propagate back to the producer.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/immoflow/feedengine/internal/config"
	"github.com/immoflow/feedengine/internal/feed"
	"github.com/immoflow/feedengine/internal/metrics"
)

const recomputeTopic = "preferences.recompute"

// Recomputer rebuilds a user's preference profile. Implemented by
// feed.Aggregator.
type Recomputer interface {
	Recompute(ctx context.Context, userID string) (*feed.PreferenceProfile, error)
}

// Queue is the asynchronous recompute pipeline. Enqueue is cheap and safe to
// call from request handlers; the actual aggregation happens in Run.
//
// Jobs are deduplicated per user: while a recompute for a user is pending,
// further enqueues for the same user are no-ops. The eventual run reads the
// full event history anyway, so collapsing bursts loses nothing.
type Queue struct {
	pubsub     *gochannel.GoChannel
	recomputer Recomputer
	cfg        config.WorkerConfig
	limiter    *rate.Limiter
	breaker    *recomputeBreaker
	logger     zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewQueue creates the recompute queue.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewQueue(recomputer Recomputer, cfg config.WorkerConfig, logger zerolog.Logger) *Queue {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(cfg.Buffer),
		},
		NewWatermillLogger(logger),
	)

	burst := int(cfg.RecomputesPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Queue{
		pubsub:     pubsub,
		recomputer: recomputer,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RecomputesPerSecond), burst),
		breaker:    newRecomputeBreaker(logger),
		logger:     logger.With().Str("component", "worker").Logger(),
		pending:    make(map[string]struct{}),
	}
}

// Enqueue schedules a recompute for userID. Returns false when the worker is
// disabled, a job for the user is already pending, or publishing fails.
func (q *Queue) Enqueue(userID string) bool {
	if !q.cfg.Enabled || userID == "" {
		return false
	}

	q.mu.Lock()
	if _, dup := q.pending[userID]; dup {
		q.mu.Unlock()
		metrics.RecordRecompute("skipped", 0)
		return false
	}
	q.pending[userID] = struct{}{}
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.RecomputeQueueDepth.Set(float64(depth))

	msg := message.NewMessage(userID, []byte(userID))
	if err := q.pubsub.Publish(recomputeTopic, msg); err != nil {
		q.release(userID)
		q.logger.Error().Err(err).Str("user_id", userID).Msg("failed to enqueue recompute")
		return false
	}
	return true
}

// Run consumes recompute jobs until ctx is canceled. It blocks; the
// supervisor runs it as a service.
func (q *Queue) Run(ctx context.Context) error {
	messages, err := q.pubsub.Subscribe(ctx, recomputeTopic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", recomputeTopic, err)
	}

	q.logger.Info().
		Int("buffer", q.cfg.Buffer).
		Float64("recomputes_per_second", q.cfg.RecomputesPerSecond).
		Msg("recompute worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			q.process(ctx, msg)
		}
	}
}

// process handles one job. The message is always acked: a failed recompute
// leaves the previous profile in place and the next interaction or the
// periodic refresh retries naturally, so redelivery adds nothing.
func (q *Queue) process(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	userID := string(msg.Payload)
	q.release(userID)

	if err := q.limiter.Wait(ctx); err != nil {
		metrics.RecordRecompute("skipped", 0)
		return
	}

	start := time.Now()
	_, err := q.breaker.Execute(func() (*feed.PreferenceProfile, error) {
		return q.recomputer.Recompute(ctx, userID)
	})
	recordBreakerResult(err)
	if err != nil {
		metrics.RecordRecompute("failed", 0)
		q.logger.Error().Err(err).Str("user_id", userID).Msg("preference recompute failed")
		return
	}

	metrics.RecordRecompute("ok", time.Since(start))
	q.logger.Debug().
		Str("user_id", userID).
		Dur("duration", time.Since(start)).
		Msg("preference recompute completed")
}

func (q *Queue) release(userID string) {
	q.mu.Lock()
	delete(q.pending, userID)
	depth := len(q.pending)
	q.mu.Unlock()
	metrics.RecomputeQueueDepth.Set(float64(depth))
}

// Close shuts down the pub/sub channel. Pending jobs are dropped; the
// periodic refresh picks up anything lost.
func (q *Queue) Close() error {
	return q.pubsub.Close()
}
