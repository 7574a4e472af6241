// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package services

import (
	"context"
	"errors"
)

// JobRunner matches the recompute queue's consuming loop.
type JobRunner interface {
	Run(ctx context.Context) error
}

// WorkerService wraps the recompute queue consumer as a supervised service.
type WorkerService struct {
	runner JobRunner
	name   string
}

// NewWorkerService creates a new worker service wrapper.
func NewWorkerService(runner JobRunner) *WorkerService {
	return &WorkerService{
		runner: runner,
		name:   "recompute-worker",
	}
}

// Serve implements suture.Service. Context cancellation is the normal stop
// path and must not count as a service failure.
func (s *WorkerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	return err
}

// String implements fmt.Stringer.
func (s *WorkerService) String() string {
	return s.name
}
