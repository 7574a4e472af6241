// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecordRequest is the input to Recorder.Record.
type RecordRequest struct {
	UserID     string
	PropertyID string
	Type       InteractionType
	Source     string
	Metadata   map[string]string

	// DwellSeconds is only meaningful on dwell events. On other types, or
	// when non-positive, it is discarded without error.
	DwellSeconds int
}

// Recorder durably appends interaction events. It is safe for concurrent use
// from multiple request contexts for the same user: the event store is
// append-only, so there is no read-modify-write race to coordinate.
type Recorder struct {
	events EventStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder backed by the given event store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecorder(events EventStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		events: events,
		logger: logger.With().Str("component", "recorder").Logger(),
		now:    time.Now,
	}
}

// Record appends exactly one event and returns its ID.
//
// Referential integrity of user and property IDs is the callers'/stores'
// responsibility; Record fails with ErrValidation only on structurally
// malformed input. Store failures come back wrapped in ErrStoreUnavailable
// and are expected to be treated as best-effort by callers.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (string, error) {
	if req.UserID == "" {
		return "", validationErr("user_id is required")
	}
	if req.PropertyID == "" {
		return "", validationErr("property_id is required")
	}
	if !req.Type.Valid() {
		return "", validationErr("unknown interaction type %q", req.Type)
	}

	dwell := req.DwellSeconds
	if req.Type != InteractionDwell || dwell < 0 {
		dwell = 0
	}

	ev := Event{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		PropertyID:   req.PropertyID,
		Type:         req.Type,
		Source:       req.Source,
		Metadata:     req.Metadata,
		DwellSeconds: dwell,
		CreatedAt:    r.now().UTC(),
	}

	if err := r.events.AppendInteraction(ctx, ev); err != nil {
		return "", storeErr("append interaction", err)
	}

	r.logger.Debug().
		Str("event_id", ev.ID).
		Str("user_id", ev.UserID).
		Str("property_id", ev.PropertyID).
		Str("type", string(ev.Type)).
		Msg("interaction recorded")

	return ev.ID, nil
}
