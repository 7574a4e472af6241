// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates tables and indexes. All columns are defined in the
// initial CREATE TABLE statements; there is no migration machinery yet.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		// Property catalog. Owned by the catalog service upstream; this
		// store mirrors the fields the feed needs.
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			location TEXT NOT NULL,
			price DOUBLE NOT NULL,
			rooms INTEGER NOT NULL,
			area_sqm DOUBLE,
			features TEXT,               -- JSON array of strings
			investment_score DOUBLE,     -- NULL until the scoring job runs
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		// Interaction events. Append-only; rows are never updated and only
		// removed by an explicit bulk reset outside this service.
		`CREATE TABLE IF NOT EXISTS interaction_events (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			property_id TEXT NOT NULL,
			type TEXT NOT NULL,
			source TEXT,
			metadata TEXT,               -- JSON object
			dwell_seconds INTEGER,
			created_at TIMESTAMP NOT NULL
		)`,

		// Derived preference profiles. A materialized view over the event
		// history, replaced wholesale on every aggregation.
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT PRIMARY KEY,
			locations TEXT,              -- JSON object: location -> weight
			rooms TEXT,                  -- JSON object: rooms -> weight
			features TEXT,               -- JSON object: feature -> weight
			price_min DOUBLE,
			price_max DOUBLE,
			interaction_count INTEGER NOT NULL,
			cold BOOLEAN NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_recency ON interaction_events(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_property_type ON interaction_events(user_id, property_id, type)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}
