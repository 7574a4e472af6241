// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"errors"
	"testing"
)

func newTestEngine(t *testing.T, catalog CatalogStore, events EventStore, prefs PreferenceStore, cfg Config) *Engine {
	t.Helper()
	eng, err := NewEngine(catalog, events, prefs, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	eng.now = fixedTime
	return eng
}

func warmProfile(userID string) *PreferenceProfile {
	return &PreferenceProfile{
		UserID:           userID,
		Locations:        map[string]float64{"berlin mitte": 2},
		Rooms:            map[int]float64{3: 1},
		Features:         map[string]float64{"balcony": 1},
		PriceRange:       &PriceRange{Min: 400_000, Max: 600_000},
		InteractionCount: 10,
		LastUpdated:      fixedTime(),
	}
}

func TestEngine_PersonalizedFeed(t *testing.T) {
	catalog := newMemCatalog(
		Property{ID: "p1", Location: "Berlin Mitte", Rooms: 3, Features: []string{"balcony"},
			Price: 500_000, InvestmentScore: floatPtr(80), Status: PropertyStatusActive},
		Property{ID: "p2", Location: "Hamburg Altona", Rooms: 2,
			Price: 300_000, InvestmentScore: floatPtr(90), Status: PropertyStatusActive},
		Property{ID: "p3", Location: "Köln Ehrenfeld", Rooms: 4,
			Price: 250_000, Status: "inactive"},
	)
	events := &memEvents{}
	prefs := newMemPrefs()
	_ = prefs.ReplacePreferenceProfile(context.Background(), warmProfile("u1"))

	eng := newTestEngine(t, catalog, events, prefs, DefaultConfig())

	resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("PersonalizedFeed() error = %v", err)
	}

	// Inactive p3 never enters the pool.
	if resp.TotalCandidates != 2 {
		t.Errorf("TotalCandidates = %d, want 2", resp.TotalCandidates)
	}
	if resp.ColdProfile {
		t.Error("ColdProfile = true, want false for a warm profile")
	}
	// p1 matches the profile on every axis; p2 on none, so quality alone
	// cannot carry it past p1.
	if resp.Items[0].Property.ID != "p1" {
		t.Errorf("top item = %s, want p1", resp.Items[0].Property.ID)
	}
	for i, item := range resp.Items {
		if item.Rank != i+1 {
			t.Errorf("item %d Rank = %d, want %d", i, item.Rank, i+1)
		}
	}
	if resp.Metadata.RequestID != "req-1" || resp.Metadata.UserID != "u1" {
		t.Errorf("metadata = %+v, want request/user echoed back", resp.Metadata)
	}
}

func TestEngine_ColdFallback(t *testing.T) {
	catalog := newMemCatalog(
		Property{ID: "low", Price: 100_000, InvestmentScore: floatPtr(20), Status: PropertyStatusActive},
		Property{ID: "high", Price: 100_000, InvestmentScore: floatPtr(95), Status: PropertyStatusActive},
		Property{ID: "mid", Price: 100_000, Status: PropertyStatusActive}, // neutral 50
	)
	events := &memEvents{}

	tests := []struct {
		name  string
		prefs PreferenceStore
	}{
		{"no stored profile", newMemPrefs()},
		{"cold-flagged profile", func() PreferenceStore {
			p := newMemPrefs()
			_ = p.ReplacePreferenceProfile(context.Background(), &PreferenceProfile{
				UserID: "u1", Cold: true, InteractionCount: 1,
			})
			return p
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, catalog, events, tt.prefs, DefaultConfig())

			resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1"})
			if err != nil {
				t.Fatalf("PersonalizedFeed() error = %v", err)
			}
			if !resp.ColdProfile {
				t.Error("ColdProfile = false, want true")
			}
			assertOrder(t, resp.Items, "high", "mid", "low")
		})
	}
}

func TestEngine_ExcludeViewed(t *testing.T) {
	catalog := newMemCatalog(
		Property{ID: "seen", Price: 100_000, InvestmentScore: floatPtr(99), Status: PropertyStatusActive},
		Property{ID: "fresh", Price: 100_000, InvestmentScore: floatPtr(10), Status: PropertyStatusActive},
	)
	events := &memEvents{}
	_ = events.AppendInteraction(context.Background(), eventAt("u1", "seen", InteractionView, fixedTime()))
	// Favoriting does not mark a listing as viewed.
	_ = events.AppendInteraction(context.Background(), eventAt("u1", "fresh", InteractionFavorite, fixedTime()))

	eng := newTestEngine(t, catalog, events, newMemPrefs(), DefaultConfig())

	t.Run("enabled", func(t *testing.T) {
		resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", ExcludeViewed: true})
		if err != nil {
			t.Fatalf("PersonalizedFeed() error = %v", err)
		}
		assertOrder(t, resp.Items, "fresh")
		// The viewed listing is dropped before scoring, so it must not
		// count toward the candidate pool either.
		if resp.TotalCandidates != 1 {
			t.Errorf("TotalCandidates = %d, want 1", resp.TotalCandidates)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1"})
		if err != nil {
			t.Fatalf("PersonalizedFeed() error = %v", err)
		}
		assertOrder(t, resp.Items, "seen", "fresh")
	})
}

func TestEngine_LimitClamping(t *testing.T) {
	var props []Property
	for i := 0; i < 10; i++ {
		props = append(props, Property{
			ID:     string(rune('a' + i)),
			Price:  100_000,
			Status: PropertyStatusActive,
		})
	}
	catalog := newMemCatalog(props...)

	cfg := DefaultConfig()
	cfg.DefaultLimit = 4
	cfg.MaxLimit = 6
	eng := newTestEngine(t, catalog, &memEvents{}, newMemPrefs(), cfg)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 4},
		{"negative uses default", -3, 4},
		{"within bounds", 5, 5},
		{"above max clamps", 50, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", Limit: tt.limit})
			if err != nil {
				t.Fatalf("PersonalizedFeed() error = %v", err)
			}
			if len(resp.Items) != tt.want {
				t.Errorf("len(Items) = %d, want %d", len(resp.Items), tt.want)
			}
		})
	}
}

func TestEngine_DiversityFactor(t *testing.T) {
	catalog := newMemCatalog(
		Property{ID: "p1", Price: 100_000, Status: PropertyStatusActive},
	)
	cfg := DefaultConfig()
	cfg.DiversityFactor = 0.3
	eng := newTestEngine(t, catalog, &memEvents{}, newMemPrefs(), cfg)

	t.Run("negative falls back to configured default", func(t *testing.T) {
		resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", DiversityFactor: -1})
		if err != nil {
			t.Fatalf("PersonalizedFeed() error = %v", err)
		}
		if !almostEqual(resp.Metadata.DiversityFactor, 0.3) {
			t.Errorf("DiversityFactor = %v, want 0.3", resp.Metadata.DiversityFactor)
		}
	})

	t.Run("explicit zero disables diversification", func(t *testing.T) {
		resp, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", DiversityFactor: 0})
		if err != nil {
			t.Fatalf("PersonalizedFeed() error = %v", err)
		}
		if !almostEqual(resp.Metadata.DiversityFactor, 0) {
			t.Errorf("DiversityFactor = %v, want 0", resp.Metadata.DiversityFactor)
		}
	})

	t.Run("above one is rejected", func(t *testing.T) {
		_, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", DiversityFactor: 1.5})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestEngine_Errors(t *testing.T) {
	catalog := newMemCatalog(Property{ID: "p1", Price: 1, Status: PropertyStatusActive})
	events := &memEvents{}
	prefs := newMemPrefs()
	eng := newTestEngine(t, catalog, events, prefs, DefaultConfig())

	t.Run("missing user id", func(t *testing.T) {
		_, err := eng.PersonalizedFeed(context.Background(), Request{})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("preference store down", func(t *testing.T) {
		prefs.err = errors.New("duckdb: io error")
		defer func() { prefs.err = nil }()

		_, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1"})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("catalog down", func(t *testing.T) {
		catalog.err = errors.New("duckdb: io error")
		defer func() { catalog.err = nil }()

		_, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1"})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("event store down with exclude_viewed", func(t *testing.T) {
		events.err = errors.New("duckdb: io error")
		defer func() { events.err = nil }()

		_, err := eng.PersonalizedFeed(context.Background(), Request{UserID: "u1", ExcludeViewed: true})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("invalid config rejected at construction", func(t *testing.T) {
		bad := DefaultConfig()
		bad.RelevanceWeight = -1
		if _, err := NewEngine(catalog, events, prefs, bad, testLogger()); err == nil {
			t.Error("NewEngine() accepted invalid config")
		}
	})
}
