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
	"time"

	"github.com/goccy/go-json"

	"github.com/immoflow/feedengine/internal/feed"
)

// EventStore implements feed.EventStore on the interaction_events table.
type EventStore struct {
	db *DB
}

// Events returns the event store view of the database.
func (db *DB) Events() *EventStore {
	return &EventStore{db: db}
}

// AppendInteraction inserts a single immutable event row.
func (s *EventStore) AppendInteraction(ctx context.Context, ev feed.Event) error {
	var metadata any
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO interaction_events
			(id, user_id, property_id, type, source, metadata, dwell_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.PropertyID, string(ev.Type), ev.Source,
		metadata, ev.DwellSeconds, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction event: %w", err)
	}
	return nil
}

// ListInteractions returns the user's most recent events, newest first.
func (s *EventStore) ListInteractions(ctx context.Context, userID string, limit int) ([]feed.Event, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, user_id, property_id, type, source, metadata, dwell_seconds, created_at
		FROM interaction_events
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer closeWithLog(rows, "interaction rows")

	var out []feed.Event
	for rows.Next() {
		var (
			ev          feed.Event
			evType      string
			source      sql.NullString
			metadataRaw sql.NullString
			dwell       sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.PropertyID, &evType,
			&source, &metadataRaw, &dwell, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction event: %w", err)
		}
		ev.Type = feed.InteractionType(evType)
		ev.Source = source.String
		ev.DwellSeconds = int(dwell.Int64)
		if metadataRaw.Valid && metadataRaw.String != "" {
			if err := json.Unmarshal([]byte(metadataRaw.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for event %s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ViewedPropertyIDs returns the distinct property IDs the user has viewed.
// Only view events count; a search hit or dwell alone does not mark a
// listing as seen.
func (s *EventStore) ViewedPropertyIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT DISTINCT property_id FROM interaction_events
		WHERE user_id = ? AND type = ?`, userID, string(feed.InteractionView))
	if err != nil {
		return nil, fmt.Errorf("query viewed properties: %w", err)
	}
	defer closeWithLog(rows, "viewed property rows")

	viewed := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan viewed property id: %w", err)
		}
		viewed[id] = struct{}{}
	}
	return viewed, rows.Err()
}

// HasViewed reports whether the user has ever viewed the property.
func (s *EventStore) HasViewed(ctx context.Context, userID, propertyID string) (bool, error) {
	var exists bool
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM interaction_events
			WHERE user_id = ? AND property_id = ? AND type = ?
		)`, userID, propertyID, string(feed.InteractionView)).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("query has viewed: %w", err)
	}
	return exists, nil
}

// ActiveUserIDs returns the distinct users with at least one event since the
// cutoff. The refresh scheduler uses it to bound periodic recomputation to
// recently active users.
func (s *EventStore) ActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM interaction_events
		WHERE created_at >= ?
		ORDER BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer closeWithLog(rows, "active user rows")

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ feed.EventStore = (*EventStore)(nil)
