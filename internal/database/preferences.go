// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/immoflow/feedengine/internal/feed"
)

// PreferenceStore implements feed.PreferenceStore on the user_preferences
// table. Profiles are replaced wholesale; there are no partial updates.
type PreferenceStore struct {
	db *DB
}

// Preferences returns the preference store view of the database.
func (db *DB) Preferences() *PreferenceStore {
	return &PreferenceStore{db: db}
}

// PreferenceProfile returns the stored profile, or (nil, nil) when the user
// has never been aggregated.
func (s *PreferenceStore) PreferenceProfile(ctx context.Context, userID string) (*feed.PreferenceProfile, error) {
	var (
		profile      feed.PreferenceProfile
		locationsRaw sql.NullString
		roomsRaw     sql.NullString
		featuresRaw  sql.NullString
		priceMin     sql.NullFloat64
		priceMax     sql.NullFloat64
	)
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT user_id, locations, rooms, features, price_min, price_max,
			interaction_count, cold, last_updated
		FROM user_preferences WHERE user_id = ?`, userID).
		Scan(&profile.UserID, &locationsRaw, &roomsRaw, &featuresRaw,
			&priceMin, &priceMax, &profile.InteractionCount, &profile.Cold,
			&profile.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preference profile: %w", err)
	}

	if err := unmarshalColumn(locationsRaw, &profile.Locations); err != nil {
		return nil, fmt.Errorf("unmarshal locations for %s: %w", userID, err)
	}
	if err := unmarshalColumn(roomsRaw, &profile.Rooms); err != nil {
		return nil, fmt.Errorf("unmarshal rooms for %s: %w", userID, err)
	}
	if err := unmarshalColumn(featuresRaw, &profile.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features for %s: %w", userID, err)
	}
	if priceMin.Valid && priceMax.Valid {
		profile.PriceRange = &feed.PriceRange{Min: priceMin.Float64, Max: priceMax.Float64}
	}
	return &profile, nil
}

// ReplacePreferenceProfile overwrites the user's profile in a single
// statement. DuckDB makes the row swap atomic, so a concurrent reader sees
// either the old profile or the new one, never a mix.
func (s *PreferenceStore) ReplacePreferenceProfile(ctx context.Context, profile *feed.PreferenceProfile) error {
	locations, err := marshalColumn(profile.Locations)
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}
	rooms, err := marshalColumn(profile.Rooms)
	if err != nil {
		return fmt.Errorf("marshal rooms: %w", err)
	}
	features, err := marshalColumn(profile.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	var priceMin, priceMax any
	if profile.PriceRange != nil {
		priceMin = profile.PriceRange.Min
		priceMax = profile.PriceRange.Max
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO user_preferences
			(user_id, locations, rooms, features, price_min, price_max,
			interaction_count, cold, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID, locations, rooms, features, priceMin, priceMax,
		profile.InteractionCount, profile.Cold, profile.LastUpdated)
	if err != nil {
		return fmt.Errorf("replace preference profile for %s: %w", profile.UserID, err)
	}
	return nil
}

func marshalColumn(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func unmarshalColumn[T any](col sql.NullString, dst *T) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

var _ feed.PreferenceStore = (*PreferenceStore)(nil)
