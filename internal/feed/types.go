// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

// Package feed implements the personalized property feed: interaction
// recording, preference aggregation, candidate scoring, and diversity-aware
// ranking.
//
// The package has no dependencies on other internal packages. All state lives
// behind the CatalogStore, EventStore, and PreferenceStore interfaces, which
// are implemented by the database layer and by in-memory fakes in tests.
package feed

import (
	"context"
	"time"
)

// InteractionType classifies a user-property interaction event.
type InteractionType string

const (
	// InteractionView records that a user opened a property's detail page.
	InteractionView InteractionType = "view"
	// InteractionFavorite records an explicit positive signal.
	InteractionFavorite InteractionType = "favorite"
	// InteractionUnfavorite records the withdrawal of a favorite. It is a
	// negative signal: its weight subtracts from the property's attribute
	// contributions so users can unlearn a preference.
	InteractionUnfavorite InteractionType = "unfavorite"
	// InteractionSearch records a search that surfaced the property.
	InteractionSearch InteractionType = "search"
	// InteractionDwell records time spent on a property's detail page.
	InteractionDwell InteractionType = "dwell"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionFavorite, InteractionUnfavorite,
		InteractionSearch, InteractionDwell:
		return true
	}
	return false
}

// Weight returns the signal weight for this interaction type.
// A dwell event only counts as a strong signal above the threshold;
// shorter dwells carry the same weight as a plain view.
func (t InteractionType) Weight(dwell, dwellThreshold time.Duration) float64 {
	switch t {
	case InteractionFavorite:
		return 3.0
	case InteractionDwell:
		if dwell > dwellThreshold {
			return 2.0
		}
		return 1.0
	case InteractionSearch:
		return 1.5
	case InteractionView:
		return 1.0
	case InteractionUnfavorite:
		return -2.0
	default:
		return 0.0
	}
}

// Event is an immutable interaction fact. Events are append-only and never
// mutated after recording.
type Event struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	PropertyID   string            `json:"property_id"`
	Type         InteractionType   `json:"type"`
	Source       string            `json:"source,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	DwellSeconds int               `json:"dwell_seconds,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Dwell returns the recorded dwell time as a duration.
func (e *Event) Dwell() time.Duration {
	return time.Duration(e.DwellSeconds) * time.Second
}

// PropertyStatusActive marks listings eligible for the feed.
const PropertyStatusActive = "active"

// Property is a catalog listing. The catalog store owns these records; the
// feed treats them as read-only.
type Property struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Price    float64  `json:"price"`
	Rooms    int      `json:"rooms"`
	AreaSQM  float64  `json:"area_sqm,omitempty"`
	Features []string `json:"features,omitempty"`

	// InvestmentScore is the precomputed 0-100 quality signal. Nil means
	// the listing has not been scored yet; scoring falls back to neutral.
	InvestmentScore *float64 `json:"investment_score,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceRange bounds a user's learned price comfort zone.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price falls inside the range.
func (r *PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// PreferenceProfile is the derived per-user taste profile. It is a
// materialized view over the user's event history: recomputing it from the
// same events always yields the same profile.
type PreferenceProfile struct {
	UserID string `json:"user_id"`

	// Locations, Rooms and Features are weighted multisets, trimmed to the
	// configured top-K entries by accumulated weight.
	Locations map[string]float64 `json:"locations,omitempty"`
	Rooms     map[int]float64    `json:"rooms,omitempty"`
	Features  map[string]float64 `json:"features,omitempty"`

	// PriceRange is mean ± 1 stddev of interacted prices, clamped to >= 0.
	// Nil for cold profiles.
	PriceRange *PriceRange `json:"price_range,omitempty"`

	InteractionCount int `json:"interaction_count"`

	// Cold marks a profile with too little history to personalize. Scoring
	// treats a cold profile as "no signal" and ranks by quality alone.
	Cold bool `json:"cold"`

	LastUpdated time.Time `json:"last_updated"`
}

// ScoredCandidate is a transient scored listing, produced per feed request
// and never persisted.
type ScoredCandidate struct {
	Property Property `json:"property"`

	// Relevance is how well the listing matches the profile (0-100).
	Relevance float64 `json:"relevance_score"`
	// Quality is the listing-intrinsic investment score (0-100).
	Quality float64 `json:"quality_score"`
	// Combined blends relevance and quality per the configured weights.
	Combined float64 `json:"combined_score"`

	Rank int `json:"rank"`
}

// Request holds the parameters of one feed-ranking operation.
type Request struct {
	UserID        string `json:"user_id"`
	Limit         int    `json:"limit,omitempty"`
	ExcludeViewed bool   `json:"exclude_viewed,omitempty"`

	// DiversityFactor in [0,1]; 0 is pure relevance order, 1 pure variety.
	// Negative means "use the configured default".
	DiversityFactor float64 `json:"diversity_factor,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Response is an assembled feed.
type Response struct {
	Items           []ScoredCandidate `json:"items"`
	TotalCandidates int               `json:"total_candidates"`
	ColdProfile     bool              `json:"cold_profile"`
	Metadata        ResponseMetadata  `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	RequestID       string    `json:"request_id,omitempty"`
	UserID          string    `json:"user_id"`
	DiversityFactor float64   `json:"diversity_factor"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// CandidateFilter holds hard constraints passed through to the catalog.
type CandidateFilter struct {
	// Location is a case-insensitive substring filter.
	Location string
	// MaxPrice excludes listings above the ceiling. 0 disables the filter.
	MaxPrice float64
	// MinRooms excludes listings with fewer rooms. 0 disables the filter.
	MinRooms int
	// Limit caps the candidate pool size. 0 means store default.
	Limit int
}

// CatalogStore supplies candidate listings. Implementations must return only
// active properties from ActiveCandidates and take no part in ranking.
type CatalogStore interface {
	ActiveCandidates(ctx context.Context, filter CandidateFilter) ([]Property, error)
	PropertyByID(ctx context.Context, id string) (*Property, error)
}

// EventStore persists interaction events. Append-only: implementations never
// update rows, which makes concurrent recording safe without coordination.
type EventStore interface {
	AppendInteraction(ctx context.Context, ev Event) error
	// ListInteractions returns up to limit events ordered by recency (newest
	// first).
	ListInteractions(ctx context.Context, userID string, limit int) ([]Event, error)
	// ViewedPropertyIDs returns the set of property IDs the user has viewed.
	ViewedPropertyIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	HasViewed(ctx context.Context, userID, propertyID string) (bool, error)
}

// PreferenceStore persists derived preference profiles. Replace is a full
// overwrite; concurrent recomputations race benignly (last writer wins).
type PreferenceStore interface {
	// PreferenceProfile returns the stored profile, or (nil, nil) when the
	// user has never been aggregated.
	PreferenceProfile(ctx context.Context, userID string) (*PreferenceProfile, error)
	ReplacePreferenceProfile(ctx context.Context, profile *PreferenceProfile) error
}
