// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Aggregator recomputes per-user preference profiles from interaction
// history. A profile is recomputed wholesale on every run rather than
// patched incrementally, so repeated runs over the same events are
// idempotent and drift cannot accumulate.
type Aggregator struct {
	events  EventStore
	catalog CatalogStore
	prefs   PreferenceStore
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAggregator creates an Aggregator over the given stores.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAggregator(events EventStore, catalog CatalogStore, prefs PreferenceStore, cfg Config, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		events:  events,
		catalog: catalog,
		prefs:   prefs,
		cfg:     cfg,
		logger:  logger.With().Str("component", "aggregator").Logger(),
		now:     time.Now,
	}
}

// priceStats accumulates a weighted mean and variance over listing prices.
type priceStats struct {
	sumW  float64
	sumX  float64
	sumX2 float64
}

func (s *priceStats) add(price, w float64) {
	s.sumW += w
	s.sumX += w * price
	s.sumX2 += w * price * price
}

// rang derives mean ± 1 stddev, clamped to >= 0. Returns nil when the
// accumulated weight is not positive (e.g. only negative signals).
func (s *priceStats) rang() *PriceRange {
	if s.sumW <= 0 {
		return nil
	}
	mean := s.sumX / s.sumW
	variance := s.sumX2/s.sumW - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev := math.Sqrt(variance)
	return &PriceRange{
		Min: math.Max(0, mean-stddev),
		Max: math.Max(0, mean+stddev),
	}
}

// Recompute rebuilds and persists the preference profile for userID.
//
// The update is all-or-nothing: if the event store or a catalog lookup fails
// mid-computation, the prior profile is left untouched and the error is
// returned wrapped in ErrStoreUnavailable.
func (a *Aggregator) Recompute(ctx context.Context, userID string) (*PreferenceProfile, error) {
	if userID == "" {
		return nil, validationErr("user_id is required")
	}

	events, err := a.events.ListInteractions(ctx, userID, a.cfg.MaxEvents)
	if err != nil {
		return nil, storeErr("list interactions", err)
	}

	profile := &PreferenceProfile{
		UserID:           userID,
		InteractionCount: len(events),
		LastUpdated:      a.now().UTC(),
	}

	if len(events) < a.cfg.ColdThreshold {
		profile.Cold = true
		if err := a.prefs.ReplacePreferenceProfile(ctx, profile); err != nil {
			return nil, storeErr("replace preference profile", err)
		}
		a.logger.Debug().
			Str("user_id", userID).
			Int("interactions", len(events)).
			Msg("profile is cold, skipping aggregation")
		return profile, nil
	}

	locations := make(map[string]float64)
	rooms := make(map[int]float64)
	features := make(map[string]float64)
	var prices priceStats

	// One catalog lookup per distinct property; nil means "known missing".
	resolved := make(map[string]*Property)
	nowUTC := a.now().UTC()

	for i := range events {
		ev := &events[i]
		w := ev.Type.Weight(ev.Dwell(), a.cfg.DwellWeightThreshold)
		if w == 0 {
			continue
		}
		w *= recencyWeight(nowUTC, ev.CreatedAt, a.cfg.RecencyDecay)

		prop, ok := resolved[ev.PropertyID]
		if !ok {
			prop, err = a.catalog.PropertyByID(ctx, ev.PropertyID)
			if err != nil {
				return nil, storeErr("resolve property "+ev.PropertyID, err)
			}
			resolved[ev.PropertyID] = prop
		}
		if prop == nil {
			// Listing has been removed from the catalog; its events still
			// count toward interaction_count but carry no attributes.
			continue
		}

		if prop.Location != "" {
			locations[normalizeLocation(prop.Location)] += w
		}
		if prop.Rooms > 0 {
			rooms[prop.Rooms] += w
		}
		for _, f := range prop.Features {
			if f = normalizeFeature(f); f != "" {
				features[f] += w
			}
		}
		if prop.Price > 0 {
			prices.add(prop.Price, w)
		}
	}

	profile.Locations = topKString(locations, a.cfg.TopLocations)
	profile.Features = topKString(features, a.cfg.TopFeatures)
	profile.Rooms = topKInt(rooms, a.cfg.TopRooms)
	profile.PriceRange = prices.rang()

	if err := a.prefs.ReplacePreferenceProfile(ctx, profile); err != nil {
		return nil, storeErr("replace preference profile", err)
	}

	a.logger.Debug().
		Str("user_id", userID).
		Int("interactions", profile.InteractionCount).
		Int("locations", len(profile.Locations)).
		Int("features", len(profile.Features)).
		Msg("preference profile recomputed")

	return profile, nil
}

// recencyWeight is decay^age_in_days, so older events contribute less
// without ever being excluded outright.
func recencyWeight(now, createdAt time.Time, decay float64) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return math.Pow(decay, ageDays)
}

// topKString keeps the k heaviest entries with positive weight. Entries
// driven to zero or below by negative signals are dropped, never stored
// negative.
func topKString(m map[string]float64, k int) map[string]float64 {
	type entry struct {
		key string
		w   float64
	}
	entries := make([]entry, 0, len(m))
	for key, w := range m {
		if w > 0 {
			entries = append(entries, entry{key, w})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].w != entries[j].w {
			return entries[i].w > entries[j].w
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.key] = e.w
	}
	return out
}

func topKInt(m map[int]float64, k int) map[int]float64 {
	type entry struct {
		key int
		w   float64
	}
	entries := make([]entry, 0, len(m))
	for key, w := range m {
		if w > 0 {
			entries = append(entries, entry{key, w})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].w != entries[j].w {
			return entries[i].w > entries[j].w
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	if len(entries) == 0 {
		return nil
	}
	out := make(map[int]float64, len(entries))
	for _, e := range entries {
		out[e.key] = e.w
	}
	return out
}
