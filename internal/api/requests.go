// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package api

import "time"

// TrackInteractionRequest is the body of POST /api/v1/interactions.
type TrackInteractionRequest struct {
	UserID       string            `json:"user_id" validate:"required,max=128"`
	PropertyID   string            `json:"property_id" validate:"required,max=128"`
	Type         string            `json:"type" validate:"required,interaction_type"`
	Source       string            `json:"source" validate:"omitempty,max=64"`
	Metadata     map[string]string `json:"metadata" validate:"omitempty,max=20"`
	DwellSeconds int               `json:"dwell_seconds" validate:"omitempty,gte=0,lte=86400"`
}

// FeedQuery holds the parsed query parameters of GET /api/v1/feed/{userID}.
type FeedQuery struct {
	Limit           int     `validate:"omitempty,gte=1,lte=100"`
	ExcludeViewed   bool    ``
	DiversityFactor float64 `validate:"omitempty,gte=-1,lte=1"`
}

// UpsertPropertyRequest is the body of PUT /api/v1/properties/{propertyID}.
type UpsertPropertyRequest struct {
	Title           string    `json:"title" validate:"required,max=256"`
	Location        string    `json:"location" validate:"required,max=128"`
	Price           float64   `json:"price" validate:"required,gt=0"`
	Rooms           int       `json:"rooms" validate:"required,gte=1,lte=50"`
	AreaSQM         float64   `json:"area_sqm" validate:"omitempty,gt=0"`
	Features        []string  `json:"features" validate:"omitempty,max=50,dive,max=64"`
	InvestmentScore *float64  `json:"investment_score" validate:"omitempty,gte=0,lte=100"`
	Status          string    `json:"status" validate:"required,oneof=active inactive sold"`
	CreatedAt       time.Time `json:"created_at"`
}

// TrackInteractionResponse acknowledges an accepted interaction.
type TrackInteractionResponse struct {
	EventID string `json:"event_id"`
	// RecomputeQueued reports whether a preference refresh was scheduled.
	RecomputeQueued bool `json:"recompute_queued"`
}

// RecomputeResponse acknowledges a queued preference recomputation.
type RecomputeResponse struct {
	UserID string `json:"user_id"`
	Queued bool   `json:"queued"`
}
