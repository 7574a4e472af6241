// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/immoflow/feedengine/internal/feed"
	"github.com/immoflow/feedengine/internal/logging"
)

// SeedMockData seeds the database with a realistic property catalog and a
// few users' interaction histories. This is intended for demos and local
// development only; production catalogs are synced from the upstream
// listing service.
func (db *DB) SeedMockData(ctx context.Context) error {
	logging.Info().Msg("Seeding database with mock catalog and interactions...")

	rng := rand.New(rand.NewSource(42)) // fixed seed keeps demo feeds stable across restarts

	type listing struct {
		city     string
		district string
	}
	locations := []listing{
		{"Berlin", "Mitte"},
		{"Berlin", "Prenzlauer Berg"},
		{"Berlin", "Kreuzberg"},
		{"Berlin", "Charlottenburg"},
		{"München", "Schwabing"},
		{"München", "Maxvorstadt"},
		{"Hamburg", "Altona"},
		{"Hamburg", "Eimsbüttel"},
		{"Frankfurt", "Westend"},
		{"Köln", "Ehrenfeld"},
		{"Stuttgart", "West"},
		{"Leipzig", "Südvorstadt"},
	}

	featurePool := []string{
		"balcony", "garden", "elevator", "parking", "basement",
		"fitted_kitchen", "floor_heating", "terrace", "guest_toilet",
		"renovated", "new_build", "furnished",
	}

	const numProperties = 120
	now := time.Now().UTC()

	catalog := db.Catalog()
	for i := 0; i < numProperties; i++ {
		loc := locations[rng.Intn(len(locations))]
		rooms := 1 + rng.Intn(5)

		// Price scales with rooms plus city noise.
		basePrice := 150_000 + float64(rooms)*95_000
		price := basePrice + float64(rng.Intn(200_000)) - 50_000
		if price < 80_000 {
			price = 80_000
		}

		nFeatures := 2 + rng.Intn(4)
		features := make([]string, 0, nFeatures)
		seen := make(map[string]struct{}, nFeatures)
		for len(features) < nFeatures {
			f := featurePool[rng.Intn(len(featurePool))]
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			features = append(features, f)
		}

		// Roughly one in six listings is still unscored.
		var score *float64
		if rng.Intn(6) != 0 {
			v := 30 + float64(rng.Intn(66))
			score = &v
		}

		p := &feed.Property{
			ID:              fmt.Sprintf("prop-%04d", i+1),
			Title:           fmt.Sprintf("%d-Zimmer-Wohnung in %s %s", rooms, loc.city, loc.district),
			Location:        fmt.Sprintf("%s %s", loc.city, loc.district),
			Price:           price,
			Rooms:           rooms,
			AreaSQM:         float64(30 + rooms*22 + rng.Intn(25)),
			Features:        features,
			InvestmentScore: score,
			Status:          feed.PropertyStatusActive,
			CreatedAt:       now.AddDate(0, 0, -rng.Intn(90)),
		}
		if err := catalog.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to seed property %s: %w", p.ID, err)
		}
	}
	logging.Info().Int("count", numProperties).Msg("Created mock properties")

	// A handful of demo users with distinct tastes so the feed endpoint
	// shows meaningful personalization out of the box.
	const (
		numUsers          = 5
		eventsPerUser     = 25
		daysOfHistory     = 21
		demoUserIDPattern = "demo-user-%d"
	)

	events := db.Events()
	types := []feed.InteractionType{
		feed.InteractionView, feed.InteractionView, feed.InteractionView,
		feed.InteractionFavorite, feed.InteractionSearch, feed.InteractionDwell,
	}

	totalEvents := 0
	for u := 0; u < numUsers; u++ {
		userID := fmt.Sprintf(demoUserIDPattern, u+1)
		// Each demo user concentrates on two adjacent districts.
		home := locations[(u*2)%len(locations)]

		for i := 0; i < eventsPerUser; i++ {
			propertyID := fmt.Sprintf("prop-%04d", 1+rng.Intn(numProperties))
			evType := types[rng.Intn(len(types))]

			dwell := 0
			if evType == feed.InteractionDwell {
				dwell = 5 + rng.Intn(120)
			}

			ev := feed.Event{
				ID:           uuid.NewString(),
				UserID:       userID,
				PropertyID:   propertyID,
				Type:         evType,
				Source:       "seed",
				Metadata:     map[string]string{"district": home.district},
				DwellSeconds: dwell,
				CreatedAt:    now.AddDate(0, 0, -rng.Intn(daysOfHistory)),
			}
			if err := events.AppendInteraction(ctx, ev); err != nil {
				return fmt.Errorf("failed to seed interaction for %s: %w", userID, err)
			}
			totalEvents++
		}
	}

	logging.Info().
		Int("properties", numProperties).
		Int("users", numUsers).
		Int("events", totalEvents).
		Msg("Mock data seeded successfully")

	return nil
}
