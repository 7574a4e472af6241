// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecorder_Record(t *testing.T) {
	events := &memEvents{}
	rec := NewRecorder(events, testLogger())
	rec.now = fixedTime

	id, err := rec.Record(context.Background(), RecordRequest{
		UserID:     "u1",
		PropertyID: "p1",
		Type:       InteractionFavorite,
		Source:     "detail_page",
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id == "" {
		t.Error("Record() returned empty event ID")
	}
	if n := events.countFor("u1"); n != 1 {
		t.Errorf("stored events = %d, want 1", n)
	}

	stored, _ := events.ListInteractions(context.Background(), "u1", 0)
	if stored[0].CreatedAt != fixedTime() {
		t.Errorf("CreatedAt = %v, want %v", stored[0].CreatedAt, fixedTime())
	}
	if stored[0].CreatedAt.Location() != time.UTC {
		t.Error("timestamps must be stored in UTC")
	}
}

func TestRecorder_Validation(t *testing.T) {
	rec := NewRecorder(&memEvents{}, testLogger())

	tests := []struct {
		name string
		req  RecordRequest
	}{
		{"missing user id", RecordRequest{PropertyID: "p1", Type: InteractionView}},
		{"missing property id", RecordRequest{UserID: "u1", Type: InteractionView}},
		{"unknown type", RecordRequest{UserID: "u1", PropertyID: "p1", Type: "teleport"}},
		{"empty type", RecordRequest{UserID: "u1", PropertyID: "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rec.Record(context.Background(), tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Record() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRecorder_DwellSeconds(t *testing.T) {
	tests := []struct {
		name string
		req  RecordRequest
		want int
	}{
		{
			"kept on dwell events",
			RecordRequest{UserID: "u1", PropertyID: "p1", Type: InteractionDwell, DwellSeconds: 42},
			42,
		},
		{
			"discarded on non-dwell events",
			RecordRequest{UserID: "u1", PropertyID: "p1", Type: InteractionView, DwellSeconds: 42},
			0,
		},
		{
			"negative dwell discarded",
			RecordRequest{UserID: "u1", PropertyID: "p1", Type: InteractionDwell, DwellSeconds: -5},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &memEvents{}
			rec := NewRecorder(events, testLogger())

			if _, err := rec.Record(context.Background(), tt.req); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			stored, _ := events.ListInteractions(context.Background(), "u1", 0)
			if stored[0].DwellSeconds != tt.want {
				t.Errorf("DwellSeconds = %d, want %d", stored[0].DwellSeconds, tt.want)
			}
		})
	}
}

func TestRecorder_StoreFailure(t *testing.T) {
	events := &memEvents{err: errors.New("duckdb: disk full")}
	rec := NewRecorder(events, testLogger())

	_, err := rec.Record(context.Background(), RecordRequest{
		UserID: "u1", PropertyID: "p1", Type: InteractionView,
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Record() error = %v, want ErrStoreUnavailable", err)
	}
}
