// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func floatPtr(v float64) *float64 {
	return &v
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// memCatalog is an in-memory CatalogStore.
type memCatalog struct {
	mu         sync.Mutex
	properties map[string]*Property
	err        error
}

func newMemCatalog(properties ...Property) *memCatalog {
	c := &memCatalog{properties: make(map[string]*Property)}
	for i := range properties {
		p := properties[i]
		c.properties[p.ID] = &p
	}
	return c
}

func (c *memCatalog) ActiveCandidates(_ context.Context, filter CandidateFilter) ([]Property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []Property
	for _, p := range c.properties {
		if p.Status != PropertyStatusActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (c *memCatalog) PropertyByID(_ context.Context, id string) (*Property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.properties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// memEvents is an in-memory append-only EventStore.
type memEvents struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *memEvents) AppendInteraction(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *memEvents) ListInteractions(_ context.Context, userID string, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Event
	for _, ev := range s.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memEvents) ViewedPropertyIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	viewed := make(map[string]struct{})
	for _, ev := range s.events {
		if ev.UserID == userID && ev.Type == InteractionView {
			viewed[ev.PropertyID] = struct{}{}
		}
	}
	return viewed, nil
}

func (s *memEvents) HasViewed(ctx context.Context, userID, propertyID string) (bool, error) {
	viewed, err := s.ViewedPropertyIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := viewed[propertyID]
	return ok, nil
}

func (s *memEvents) countFor(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.UserID == userID {
			n++
		}
	}
	return n
}

// memPrefs is an in-memory PreferenceStore.
type memPrefs struct {
	mu       sync.Mutex
	profiles map[string]*PreferenceProfile
	err      error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{profiles: make(map[string]*PreferenceProfile)}
}

func (s *memPrefs) PreferenceProfile(_ context.Context, userID string) (*PreferenceProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memPrefs) ReplacePreferenceProfile(_ context.Context, profile *PreferenceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *profile
	s.profiles[profile.UserID] = &cp
	return nil
}

// fixedTime returns a deterministic clock for tests.
func fixedTime() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}
