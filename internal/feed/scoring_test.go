// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"testing"
)

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name  string
		score *float64
		want  float64
	}{
		{"unscored listing gets neutral 50", nil, 50},
		{"score passes through", floatPtr(82), 82},
		{"score clamped to 100", floatPtr(150), 100},
		{"negative score clamped to 0", floatPtr(-5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Property{InvestmentScore: tt.score}
			if got := qualityScore(p); !almostEqual(got, tt.want) {
				t.Errorf("qualityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_ColdProfile(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	candidates := []Property{
		{ID: "p1", InvestmentScore: floatPtr(80)},
		{ID: "p2"},
	}

	t.Run("nil profile ranks by quality", func(t *testing.T) {
		scored := scorer.Score(nil, candidates)
		for _, sc := range scored {
			if !almostEqual(sc.Relevance, sc.Quality) {
				t.Errorf("candidate %s: relevance %v != quality %v on cold profile",
					sc.Property.ID, sc.Relevance, sc.Quality)
			}
		}
		if !almostEqual(scored[0].Combined, 80) {
			t.Errorf("p1 combined = %v, want 80", scored[0].Combined)
		}
		if !almostEqual(scored[1].Combined, 50) {
			t.Errorf("p2 combined = %v, want 50", scored[1].Combined)
		}
	})

	t.Run("cold-flagged profile ranks by quality", func(t *testing.T) {
		profile := &PreferenceProfile{
			UserID:    "u1",
			Cold:      true,
			Locations: map[string]float64{"berlin mitte": 1},
		}
		scored := scorer.Score(profile, candidates)
		for _, sc := range scored {
			if !almostEqual(sc.Relevance, sc.Quality) {
				t.Errorf("candidate %s: cold profile must not personalize", sc.Property.ID)
			}
		}
	})
}

func TestScorer_FullMatch(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	profile := &PreferenceProfile{
		UserID:    "u1",
		Locations: map[string]float64{"berlin mitte": 2.5},
		Rooms:     map[int]float64{3: 1.5},
		Features:  map[string]float64{"balcony": 2},
		PriceRange: &PriceRange{
			Min: 400_000,
			Max: 600_000,
		},
		InteractionCount: 10,
	}

	candidate := Property{
		ID:              "p1",
		Location:        "Berlin Mitte",
		Rooms:           3,
		Features:        []string{"balcony"},
		Price:           500_000,
		InvestmentScore: floatPtr(80),
	}

	scored := scorer.Score(profile, []Property{candidate})

	// 40 (sole location, full share) + 20 (exact rooms) + 25 (full feature
	// overlap) + 15 (inside price range) = 100.
	if !almostEqual(scored[0].Relevance, 100) {
		t.Errorf("relevance = %v, want 100", scored[0].Relevance)
	}
	if !almostEqual(scored[0].Quality, 80) {
		t.Errorf("quality = %v, want 80", scored[0].Quality)
	}
	// 0.6*100 + 0.4*80 = 92
	if !almostEqual(scored[0].Combined, 92) {
		t.Errorf("combined = %v, want 92", scored[0].Combined)
	}
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		name      string
		preferred map[string]float64
		location  string
		want      float64
	}{
		{"no preferences", nil, "Berlin", 0},
		{"empty location", map[string]float64{"berlin": 1}, "", 0},
		{"exact match full share", map[string]float64{"berlin mitte": 1}, "Berlin Mitte", 40},
		{
			"share-weighted match",
			map[string]float64{"berlin mitte": 3, "hamburg altona": 1},
			"Hamburg Altona",
			10, // 40 * 1/4
		},
		{
			"substring match in either direction",
			map[string]float64{"berlin": 1},
			"Berlin Mitte",
			40,
		},
		{"no overlap", map[string]float64{"münchen": 1}, "Hamburg", 0},
		{
			"best matching preference wins",
			map[string]float64{"berlin": 1, "berlin mitte": 3},
			"Berlin Mitte",
			30, // 40 * 3/4 beats 40 * 1/4
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := locationMatch(tt.preferred, tt.location); !almostEqual(got, tt.want) {
				t.Errorf("locationMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoomMatch(t *testing.T) {
	tests := []struct {
		name      string
		preferred map[int]float64
		rooms     int
		want      float64
	}{
		{"no preferences", nil, 3, 0},
		{"zero rooms", map[int]float64{3: 1}, 0, 0},
		{"exact match", map[int]float64{3: 1}, 3, 20},
		{"one off", map[int]float64{3: 1}, 4, 15},
		{"two off", map[int]float64{3: 1}, 5, 10},
		{"far off floors at zero", map[int]float64{3: 1}, 8, 0},
		{"closest preference counts", map[int]float64{2: 1, 4: 3}, 5, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roomMatch(tt.preferred, tt.rooms); !almostEqual(got, tt.want) {
				t.Errorf("roomMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeatureOverlap(t *testing.T) {
	preferred := map[string]float64{
		"balcony": 3, "garden": 2, "elevator": 1, "parking": 1, "basement": 1,
	}

	tests := []struct {
		name     string
		features []string
		want     float64
	}{
		{"no candidate features", nil, 0},
		{"no overlap", []string{"terrace"}, 0},
		{"partial overlap", []string{"balcony", "garden"}, 10}, // 25 * 2/5
		{"full overlap", []string{"balcony", "garden", "elevator", "parking", "basement"}, 25},
		{"duplicates count once", []string{"balcony", "Balcony", "BALCONY"}, 5}, // 25 * 1/5
		{"extra candidate features do not exceed cap", []string{
			"balcony", "garden", "elevator", "parking", "basement", "terrace", "furnished",
		}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := featureOverlap(preferred, tt.features); !almostEqual(got, tt.want) {
				t.Errorf("featureOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceFit(t *testing.T) {
	r := &PriceRange{Min: 100_000, Max: 200_000}

	tests := []struct {
		name  string
		r     *PriceRange
		price float64
		want  float64
	}{
		{"nil range", nil, 150_000, 0},
		{"zero price", r, 0, 0},
		{"inside range", r, 150_000, 15},
		{"at lower bound", r, 100_000, 15},
		{"at upper bound", r, 200_000, 15},
		{"25% above decays linearly", r, 250_000, 7.5},
		{"50% above reaches zero", r, 300_000, 0},
		{"far above stays zero", r, 400_000, 0},
		{"25% below decays linearly", r, 75_000, 7.5},
		{"50% below reaches zero", r, 50_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priceFit(tt.r, tt.price); !almostEqual(got, tt.want) {
				t.Errorf("priceFit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_RelevanceNeverExceedsBounds(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	profile := &PreferenceProfile{
		UserID:     "u1",
		Locations:  map[string]float64{"berlin": 5},
		Rooms:      map[int]float64{2: 1, 3: 1},
		Features:   map[string]float64{"balcony": 1},
		PriceRange: &PriceRange{Min: 100_000, Max: 900_000},
	}

	candidates := []Property{
		{ID: "a", Location: "Berlin", Rooms: 3, Features: []string{"balcony", "garden"}, Price: 500_000, InvestmentScore: floatPtr(100)},
		{ID: "b", Location: "Nowhere", Rooms: 30, Features: nil, Price: 5_000_000, InvestmentScore: floatPtr(0)},
	}

	for _, sc := range scorer.Score(profile, candidates) {
		if sc.Relevance < 0 || sc.Relevance > 100 {
			t.Errorf("candidate %s: relevance %v out of [0,100]", sc.Property.ID, sc.Relevance)
		}
		if sc.Combined < 0 || sc.Combined > 100 {
			t.Errorf("candidate %s: combined %v out of [0,100]", sc.Property.ID, sc.Combined)
		}
	}
}
