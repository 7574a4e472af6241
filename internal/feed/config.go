// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"fmt"
	"time"
)

// Config holds the ranking policy constants. Every value is a tunable
// default rather than a hard requirement; the application config maps onto
// this struct at startup.
type Config struct {
	// MaxEvents is how many recent events the aggregator replays per user.
	MaxEvents int

	// RecencyDecay is the per-day exponential down-weighting applied to
	// event weights: w(age) = RecencyDecay^age_in_days.
	RecencyDecay float64

	// ColdThreshold is the minimum interaction count below which a profile
	// is cold and scoring falls back to quality-only ranking.
	ColdThreshold int

	// DwellWeightThreshold is the dwell duration above which a dwell event
	// counts as a strong (2.0) signal.
	DwellWeightThreshold time.Duration

	// RelevanceWeight and QualityWeight blend the two score components into
	// the combined score. They must sum to 1.
	RelevanceWeight float64
	QualityWeight   float64

	// DiversityFactor is the default MMR tradeoff for requests that omit one.
	DiversityFactor float64

	// TopLocations, TopFeatures, and TopRooms bound the profile multisets to
	// their heaviest entries.
	TopLocations int
	TopFeatures  int
	TopRooms     int

	// DefaultLimit and MaxLimit bound the feed size.
	DefaultLimit int
	MaxLimit     int

	// MaxCandidates caps the candidate pool fetched per feed request.
	MaxCandidates int
}

// DefaultConfig returns production defaults. The score weights mirror the
// investment-scoring split used elsewhere in the platform.
func DefaultConfig() Config {
	return Config{
		MaxEvents:            200,
		RecencyDecay:         0.98,
		ColdThreshold:        3,
		DwellWeightThreshold: 30 * time.Second,
		RelevanceWeight:      0.6,
		QualityWeight:        0.4,
		DiversityFactor:      0.3,
		TopLocations:         5,
		TopFeatures:          5,
		TopRooms:             3,
		DefaultLimit:         20,
		MaxLimit:             100,
		MaxCandidates:        1000,
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.MaxEvents <= 0 {
		return fmt.Errorf("max events must be positive, got %d", c.MaxEvents)
	}
	if c.RecencyDecay <= 0 || c.RecencyDecay > 1 {
		return fmt.Errorf("recency decay must be in (0,1], got %g", c.RecencyDecay)
	}
	if c.ColdThreshold < 0 {
		return fmt.Errorf("cold threshold must be non-negative, got %d", c.ColdThreshold)
	}
	if sum := c.RelevanceWeight + c.QualityWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("relevance and quality weights must sum to 1, got %g", sum)
	}
	if c.DiversityFactor < 0 || c.DiversityFactor > 1 {
		return fmt.Errorf("diversity factor must be in [0,1], got %g", c.DiversityFactor)
	}
	if c.TopLocations <= 0 || c.TopFeatures <= 0 || c.TopRooms <= 0 {
		return fmt.Errorf("profile top-K bounds must be positive")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("limits invalid: default=%d max=%d", c.DefaultLimit, c.MaxLimit)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", c.MaxCandidates)
	}
	return nil
}
