// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"strings"
)

// Score component caps. The four relevance components sum to at most 100.
const (
	locationPoints = 40.0
	roomPoints     = 20.0
	featurePoints  = 25.0
	pricePoints    = 15.0

	// neutralQuality is used for listings without a precomputed
	// investment score.
	neutralQuality = 50.0

	// roomMissPenalty is the per-room deduction for near misses.
	roomMissPenalty = 5.0

	// priceDecaySpan: the price-fit contribution reaches zero at 50%
	// outside the preferred range on either side.
	priceDecaySpan = 0.5
)

// Scorer computes relevance, quality, and combined scores for candidate
// listings against a preference profile. It is a pure function of its
// inputs: no side effects, deterministic, safe to run in parallel.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given policy constants.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates every candidate against the profile. A nil or cold profile
// carries no personalization signal: relevance equals quality, so the
// combined ordering degrades to pure quality ranking. This is the explicit
// fallback policy, not an error.
func (s *Scorer) Score(profile *PreferenceProfile, candidates []Property) []ScoredCandidate {
	cold := profile == nil || profile.Cold

	scored := make([]ScoredCandidate, len(candidates))
	for i := range candidates {
		quality := qualityScore(&candidates[i])
		relevance := quality
		if !cold {
			relevance = s.relevanceScore(profile, &candidates[i])
		}
		scored[i] = ScoredCandidate{
			Property:  candidates[i],
			Relevance: relevance,
			Quality:   quality,
			Combined:  s.cfg.RelevanceWeight*relevance + s.cfg.QualityWeight*quality,
		}
	}
	return scored
}

// qualityScore returns the precomputed investment score clamped to 0-100,
// or a neutral 50 when the listing has not been scored.
func qualityScore(p *Property) float64 {
	if p.InvestmentScore == nil {
		return neutralQuality
	}
	return clamp(*p.InvestmentScore, 0, 100)
}

// relevanceScore sums the four match components, capped at 100.
func (s *Scorer) relevanceScore(profile *PreferenceProfile, p *Property) float64 {
	score := locationMatch(profile.Locations, p.Location) +
		roomMatch(profile.Rooms, p.Rooms) +
		featureOverlap(profile.Features, p.Features) +
		priceFit(profile.PriceRange, p.Price)
	return clamp(score, 0, 100)
}

// locationMatch awards up to 40 points when the candidate's location exactly
// or substring-matches a preferred location, scaled by that location's
// relative share of the preference multiset. The best-matching preferred
// location wins.
func locationMatch(preferred map[string]float64, location string) float64 {
	if len(preferred) == 0 || location == "" {
		return 0
	}
	loc := normalizeLocation(location)

	var total float64
	for _, w := range preferred {
		total += w
	}
	if total <= 0 {
		return 0
	}

	var best float64
	for pref, w := range preferred {
		if !locationsOverlap(loc, pref) {
			continue
		}
		if pts := locationPoints * (w / total); pts > best {
			best = pts
		}
	}
	return best
}

func locationsOverlap(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// roomMatch awards 20 points for an exact match on a preferred room count
// and max(0, 20 - 5*|delta|) for near misses against the closest entry.
func roomMatch(preferred map[int]float64, rooms int) float64 {
	if len(preferred) == 0 || rooms <= 0 {
		return 0
	}
	minDelta := -1
	for pref := range preferred {
		delta := rooms - pref
		if delta < 0 {
			delta = -delta
		}
		if minDelta < 0 || delta < minDelta {
			minDelta = delta
		}
	}
	pts := roomPoints - roomMissPenalty*float64(minDelta)
	if pts < 0 {
		return 0
	}
	return pts
}

// featureOverlap awards 25 * |candidate ∩ preferred| / |preferred|,
// capped at 25.
func featureOverlap(preferred map[string]float64, features []string) float64 {
	if len(preferred) == 0 || len(features) == 0 {
		return 0
	}
	matches := 0
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		f = normalizeFeature(f)
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if _, ok := preferred[f]; ok {
			matches++
		}
	}
	pts := featurePoints * float64(matches) / float64(len(preferred))
	return clamp(pts, 0, featurePoints)
}

// priceFit awards 15 points inside the preferred range, decaying linearly to
// zero at 50% outside the range boundary on either side.
func priceFit(r *PriceRange, price float64) float64 {
	if r == nil || price <= 0 {
		return 0
	}
	if r.Contains(price) {
		return pricePoints
	}

	var overshoot float64
	switch {
	case price > r.Max && r.Max > 0:
		overshoot = (price - r.Max) / (priceDecaySpan * r.Max)
	case price < r.Min && r.Min > 0:
		overshoot = (r.Min - price) / (priceDecaySpan * r.Min)
	default:
		return 0
	}
	if overshoot >= 1 {
		return 0
	}
	return pricePoints * (1 - overshoot)
}

func normalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeFeature(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
