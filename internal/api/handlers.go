// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/immoflow/feedengine/internal/feed"
	"github.com/immoflow/feedengine/internal/logging"
	"github.com/immoflow/feedengine/internal/metrics"
	"github.com/immoflow/feedengine/internal/validation"
)

// CatalogAdmin extends the read-side catalog contract with write access for
// the property management endpoints.
type CatalogAdmin interface {
	feed.CatalogStore
	Upsert(ctx context.Context, p *feed.Property) error
}

// RecomputeQueue schedules background preference recomputations. Enqueue
// returns false when the job was dropped (queue full or duplicate pending).
type RecomputeQueue interface {
	Enqueue(userID string) bool
}

// Pinger reports storage liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers bundles the HTTP handlers with their dependencies. Everything is
// injected; Handlers owns no state of its own.
type Handlers struct {
	engine   *feed.Engine
	recorder *feed.Recorder
	prefs    feed.PreferenceStore
	catalog  CatalogAdmin
	queue    RecomputeQueue
	db       Pinger
	logger   zerolog.Logger
}

// NewHandlers creates the handler set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandlers(
	engine *feed.Engine,
	recorder *feed.Recorder,
	prefs feed.PreferenceStore,
	catalog CatalogAdmin,
	queue RecomputeQueue,
	db Pinger,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		engine:   engine,
		recorder: recorder,
		prefs:    prefs,
		catalog:  catalog,
		queue:    queue,
		db:       db,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Feed handles GET /api/v1/feed/{userID}.
//
// Query parameters: limit, exclude_viewed, diversity_factor. An absent
// diversity_factor means "server default", which the engine resolves.
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	query, err := parseFeedQuery(r)
	if err != nil {
		metrics.RecordFeedRequest("validation_error", 0, 0)
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(query); verr != nil {
		metrics.RecordFeedRequest("validation_error", 0, 0)
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	start := time.Now()
	resp, err := h.engine.PersonalizedFeed(r.Context(), feed.Request{
		UserID:          userID,
		Limit:           query.Limit,
		ExcludeViewed:   query.ExcludeViewed,
		DiversityFactor: query.DiversityFactor,
		RequestID:       logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrValidation):
			metrics.RecordFeedRequest("validation_error", 0, 0)
			rw.BadRequest(err.Error())
		case errors.Is(err, feed.ErrStoreUnavailable):
			metrics.RecordFeedRequest("store_error", 0, 0)
			rw.DatabaseError(err)
		default:
			metrics.RecordFeedRequest("store_error", 0, 0)
			rw.InternalError("failed to assemble feed")
		}
		return
	}

	if resp.ColdProfile {
		metrics.RecordColdFallback()
	}
	metrics.RecordFeedRequest("ok", resp.TotalCandidates, time.Since(start))

	rw.Success(resp)
}

// parseFeedQuery extracts and type-checks the feed query parameters.
func parseFeedQuery(r *http.Request) (*FeedQuery, error) {
	q := r.URL.Query()
	query := &FeedQuery{DiversityFactor: -1} // -1 means "use server default"

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		query.Limit = v
	}
	if raw := q.Get("exclude_viewed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("exclude_viewed must be a boolean")
		}
		query.ExcludeViewed = v
	}
	if raw := q.Get("diversity_factor"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("diversity_factor must be a number")
		}
		if v < 0 {
			return nil, errors.New("diversity_factor must be in [0,1]")
		}
		query.DiversityFactor = v
	}
	return query, nil
}

// TrackInteraction handles POST /api/v1/interactions.
//
// Returns 202: the event is durably recorded before responding, but the
// preference recomputation it triggers happens asynchronously. A full
// recompute queue never fails the request.
func (h *Handlers) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req TrackInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordInteractionFailure("validation")
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordInteractionFailure("validation")
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	eventID, err := h.recorder.Record(r.Context(), feed.RecordRequest{
		UserID:       req.UserID,
		PropertyID:   req.PropertyID,
		Type:         feed.InteractionType(req.Type),
		Source:       req.Source,
		Metadata:     req.Metadata,
		DwellSeconds: req.DwellSeconds,
	})
	if err != nil {
		if errors.Is(err, feed.ErrValidation) {
			metrics.RecordInteractionFailure("validation")
			rw.BadRequest(err.Error())
			return
		}
		metrics.RecordInteractionFailure("store")
		rw.DatabaseError(err)
		return
	}

	metrics.RecordInteraction(req.Type)

	queued := h.queue.Enqueue(req.UserID)
	if !queued {
		h.logger.Warn().
			Str("user_id", req.UserID).
			Msg("recompute not queued, profile refresh deferred to scheduler")
	}

	rw.Accepted(TrackInteractionResponse{
		EventID:         eventID,
		RecomputeQueued: queued,
	})
}

// RecomputePreferences handles POST /api/v1/users/{userID}/preferences/recompute.
// The recomputation itself runs in the background worker.
func (h *Handlers) RecomputePreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		rw.BadRequest("user_id is required")
		return
	}

	queued := h.queue.Enqueue(userID)
	rw.Accepted(RecomputeResponse{UserID: userID, Queued: queued})
}

// GetPreferences handles GET /api/v1/users/{userID}/preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	profile, err := h.prefs.PreferenceProfile(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if profile == nil {
		rw.NotFound("no preference profile for user " + userID)
		return
	}

	rw.Success(profile)
}

// ListProperties handles GET /api/v1/properties. Supports hard filters via
// location, max_price, min_rooms and limit query parameters.
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	filter := feed.CandidateFilter{Location: q.Get("location")}
	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			rw.BadRequest("max_price must be a non-negative number")
			return
		}
		filter.MaxPrice = v
	}
	if raw := q.Get("min_rooms"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			rw.BadRequest("min_rooms must be a non-negative integer")
			return
		}
		filter.MinRooms = v
	}
	filter.Limit = 100
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 500 {
			rw.BadRequest("limit must be an integer in [1,500]")
			return
		}
		filter.Limit = v
	}

	properties, err := h.catalog.ActiveCandidates(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(properties)
}

// GetProperty handles GET /api/v1/properties/{propertyID}.
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	propertyID := chi.URLParam(r, "propertyID")

	property, err := h.catalog.PropertyByID(r.Context(), propertyID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if property == nil {
		rw.NotFound("property " + propertyID + " not found")
		return
	}

	rw.Success(property)
}

// UpsertProperty handles PUT /api/v1/properties/{propertyID}.
func (h *Handlers) UpsertProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	propertyID := chi.URLParam(r, "propertyID")
	if propertyID == "" {
		rw.BadRequest("property_id is required")
		return
	}

	var req UpsertPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	property := &feed.Property{
		ID:              propertyID,
		Title:           req.Title,
		Location:        req.Location,
		Price:           req.Price,
		Rooms:           req.Rooms,
		AreaSQM:         req.AreaSQM,
		Features:        req.Features,
		InvestmentScore: req.InvestmentScore,
		Status:          req.Status,
		CreatedAt:       createdAt,
	}
	if err := h.catalog.Upsert(r.Context(), property); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(property)
}

// HealthLive handles GET /health/live. Process liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"status": "ok"})
}

// HealthReady handles GET /health/ready. Verifies storage connectivity.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("readiness check failed")
		rw.ServiceUnavailable("database not reachable")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
