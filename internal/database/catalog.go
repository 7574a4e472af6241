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
	"strings"

	"github.com/goccy/go-json"

	"github.com/immoflow/feedengine/internal/feed"
)

// CatalogStore implements feed.CatalogStore on the properties table.
type CatalogStore struct {
	db *DB
}

// Catalog returns the catalog store view of the database.
func (db *DB) Catalog() *CatalogStore {
	return &CatalogStore{db: db}
}

const propertyColumns = `id, title, location, price, rooms, area_sqm, features, investment_score, status, created_at`

// ActiveCandidates returns active listings matching the hard filters. The
// filters are passed through unmodified; ranking is not this store's job.
func (s *CatalogStore) ActiveCandidates(ctx context.Context, filter feed.CandidateFilter) ([]feed.Property, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + propertyColumns + ` FROM properties WHERE status = ?`)
	args := []any{feed.PropertyStatusActive}

	if filter.Location != "" {
		sb.WriteString(` AND location ILIKE ?`)
		args = append(args, "%"+filter.Location+"%")
	}
	if filter.MaxPrice > 0 {
		sb.WriteString(` AND price <= ?`)
		args = append(args, filter.MaxPrice)
	}
	if filter.MinRooms > 0 {
		sb.WriteString(` AND rooms >= ?`)
		args = append(args, filter.MinRooms)
	}
	sb.WriteString(` ORDER BY created_at DESC, id`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer closeWithLog(rows, "candidate rows")

	var out []feed.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PropertyByID returns the listing, or (nil, nil) when it does not exist.
func (s *CatalogStore) PropertyByID(ctx context.Context, id string) (*feed.Property, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert inserts or fully replaces a listing. Idempotent: re-running with
// the same record leaves the row unchanged.
func (s *CatalogStore) Upsert(ctx context.Context, p *feed.Property) error {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	var score any
	if p.InvestmentScore != nil {
		score = *p.InvestmentScore
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO properties
			(id, title, location, price, rooms, area_sqm, features, investment_score, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Location, p.Price, p.Rooms, p.AreaSQM,
		string(features), score, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert property %s: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*feed.Property, error) {
	var (
		p           feed.Property
		areaSQM     sql.NullFloat64
		featuresRaw sql.NullString
		score       sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Location, &p.Price, &p.Rooms,
		&areaSQM, &featuresRaw, &score, &p.Status, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan property: %w", err)
	}

	p.AreaSQM = areaSQM.Float64
	if featuresRaw.Valid && featuresRaw.String != "" {
		if err := json.Unmarshal([]byte(featuresRaw.String), &p.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features for %s: %w", p.ID, err)
		}
	}
	if score.Valid {
		v := score.Float64
		p.InvestmentScore = &v
	}
	return &p, nil
}

// Ensure CatalogStore implements the feed contract.
var _ feed.CatalogStore = (*CatalogStore)(nil)
