// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeUserLister struct {
	mu    sync.Mutex
	users []string
	err   error
	since time.Time
}

func (f *fakeUserLister) ActiveUserIDs(_ context.Context, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeEnqueuer) Enqueue(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, userID)
	return true
}

func (f *fakeEnqueuer) enqueued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	copy(out, f.entries)
	return out
}

func TestRefreshService_SweepEnqueuesActiveUsers(t *testing.T) {
	users := &fakeUserLister{users: []string{"u1", "u2", "u3"}}
	queue := &fakeEnqueuer{}
	svc := NewRefreshService(users, queue, RefreshServiceConfig{
		Interval: time.Hour,
		Lookback: 48 * time.Hour,
	}, zerolog.Nop())

	svc.sweep(context.Background())

	got := queue.enqueued()
	if len(got) != 3 {
		t.Fatalf("enqueued %d users, want 3: %v", len(got), got)
	}

	// The cutoff must reflect the configured lookback window.
	wantSince := time.Now().UTC().Add(-48 * time.Hour)
	if diff := users.since.Sub(wantSince); diff < -time.Minute || diff > time.Minute {
		t.Errorf("since = %v, want ~%v", users.since, wantSince)
	}
}

func TestRefreshService_SweepSurvivesStoreFailure(t *testing.T) {
	users := &fakeUserLister{err: errors.New("duckdb: io error")}
	queue := &fakeEnqueuer{}
	svc := NewRefreshService(users, queue, RefreshServiceConfig{
		Interval: time.Hour,
		Lookback: time.Hour,
	}, zerolog.Nop())

	svc.sweep(context.Background())

	if got := queue.enqueued(); len(got) != 0 {
		t.Errorf("enqueued %v after store failure, want none", got)
	}
}

func TestRefreshService_DisabledBlocksUntilCancel(t *testing.T) {
	svc := NewRefreshService(&fakeUserLister{}, &fakeEnqueuer{}, RefreshServiceConfig{
		Interval: 0,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestRefreshService_TicksTriggerSweeps(t *testing.T) {
	users := &fakeUserLister{users: []string{"u1"}}
	queue := &fakeEnqueuer{}
	svc := NewRefreshService(users, queue, RefreshServiceConfig{
		Interval: 20 * time.Millisecond,
		Lookback: time.Hour,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(5 * time.Second)
	for len(queue.enqueued()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no sweep ran within the deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not stop")
	}
}
