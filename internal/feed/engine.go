// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Engine assembles personalized feeds. It orchestrates the candidate
// supplier, the scorer, and the diversification pass; all state lives in the
// injected stores, so Engine itself is stateless and safe for concurrent use.
type Engine struct {
	catalog CatalogStore
	events  EventStore
	prefs   PreferenceStore
	scorer  *Scorer
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEngine creates a feed engine over the given stores.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(catalog CatalogStore, events EventStore, prefs PreferenceStore, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		catalog: catalog,
		events:  events,
		prefs:   prefs,
		scorer:  NewScorer(cfg),
		cfg:     cfg,
		logger:  logger.With().Str("component", "feed").Logger(),
		now:     time.Now,
	}, nil
}

// Config returns the engine's policy constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// PersonalizedFeed scores the active candidate pool against the user's
// preference profile and returns a diversified, ranked feed.
//
// Unlike interaction tracking, store failures here are fatal: the caller
// must be able to distinguish "no results" from "system degraded", so no
// empty or partial feed is ever returned on error.
func (e *Engine) PersonalizedFeed(ctx context.Context, req Request) (*Response, error) {
	start := e.now()

	if req.UserID == "" {
		return nil, validationErr("user_id is required")
	}
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = e.cfg.DefaultLimit
	case limit > e.cfg.MaxLimit:
		limit = e.cfg.MaxLimit
	}
	factor := req.DiversityFactor
	if factor < 0 {
		factor = e.cfg.DiversityFactor
	}
	if factor > 1 {
		return nil, validationErr("diversity_factor must be in [0,1], got %g", factor)
	}

	logger := e.logger.With().
		Str("user_id", req.UserID).
		Str("request_id", req.RequestID).
		Logger()

	profile, err := e.prefs.PreferenceProfile(ctx, req.UserID)
	if err != nil {
		return nil, storeErr("load preference profile", err)
	}
	cold := profile == nil || profile.Cold
	if cold {
		// Explicit policy branch, not an error: without personalization
		// signal the feed degrades to quality-only ranking.
		logger.Info().Msg("cold profile, falling back to quality ranking")
	}

	candidates, err := e.catalog.ActiveCandidates(ctx, CandidateFilter{Limit: e.cfg.MaxCandidates})
	if err != nil {
		return nil, storeErr("fetch candidates", err)
	}

	// Filter before scoring: dropping already-viewed listings first avoids
	// wasting score computation on them.
	if req.ExcludeViewed {
		viewed, err := e.events.ViewedPropertyIDs(ctx, req.UserID)
		if err != nil {
			return nil, storeErr("resolve viewed properties", err)
		}
		candidates = excludeViewed(candidates, viewed)
	}

	scored := e.scorer.Score(profile, candidates)

	// The limit truncates only after diversification; truncating the pool
	// first would defeat the variety pass.
	items := Diversify(scored, factor, limit)
	for i := range items {
		items[i].Rank = i + 1
	}

	latency := e.now().Sub(start)
	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(items)).
		Bool("cold", cold).
		Dur("latency", latency).
		Msg("feed assembled")

	return &Response{
		Items:           items,
		TotalCandidates: len(candidates),
		ColdProfile:     cold,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			DiversityFactor: factor,
			LatencyMS:       latency.Milliseconds(),
			Timestamp:       e.now().UTC(),
		},
	}, nil
}

func excludeViewed(candidates []Property, viewed map[string]struct{}) []Property {
	if len(viewed) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := viewed[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}
