// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package validation

import (
	"strings"
	"testing"
)

type trackRequest struct {
	UserID     string `validate:"required,max=128"`
	PropertyID string `validate:"required,max=128"`
	Type       string `validate:"required,interaction_type"`
	Dwell      int    `validate:"gte=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := trackRequest{
		UserID:     "u1",
		PropertyID: "p1",
		Type:       "favorite",
		Dwell:      30,
	}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_InteractionType(t *testing.T) {
	valid := []string{"view", "favorite", "unfavorite", "search", "dwell"}
	for _, typ := range valid {
		t.Run(typ, func(t *testing.T) {
			req := trackRequest{UserID: "u1", PropertyID: "p1", Type: typ}
			if err := ValidateStruct(&req); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil for type %q", err, typ)
			}
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		req := trackRequest{UserID: "u1", PropertyID: "p1", Type: "teleport"}
		err := ValidateStruct(&req)
		if err == nil {
			t.Fatal("ValidateStruct() = nil, want error")
		}
		if len(err.Errors()) != 1 {
			t.Fatalf("got %d errors, want 1", len(err.Errors()))
		}
		fe := err.Errors()[0]
		if fe.Field() != "Type" || fe.Tag() != "interaction_type" {
			t.Errorf("error = %s/%s, want Type/interaction_type", fe.Field(), fe.Tag())
		}
		if !strings.Contains(fe.Error(), "must be one of") {
			t.Errorf("message %q lacks allowed-values hint", fe.Error())
		}
	})
}

func TestValidateStruct_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		req  trackRequest
		want string
	}{
		{
			"missing required field",
			trackRequest{PropertyID: "p1", Type: "view"},
			"UserID is required",
		},
		{
			"max length exceeded",
			trackRequest{UserID: strings.Repeat("x", 200), PropertyID: "p1", Type: "view"},
			"UserID must be at most 128 characters",
		},
		{
			"negative numeric field",
			trackRequest{UserID: "u1", PropertyID: "p1", Type: "dwell", Dwell: -1},
			"Dwell must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error carries field details", func(t *testing.T) {
		req := trackRequest{PropertyID: "p1", Type: "view"}
		apiErr := ValidateStruct(&req).ToAPIError()

		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %s, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Details["field"] != "UserID" {
			t.Errorf("Details[field] = %v, want UserID", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors list all fields", func(t *testing.T) {
		req := trackRequest{Type: "teleport"}
		apiErr := ValidateStruct(&req).ToAPIError()

		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok {
			t.Fatalf("Details[fields] has type %T, want field list", apiErr.Details["fields"])
		}
		if len(fields) != 3 {
			t.Errorf("got %d field errors, want 3", len(fields))
		}
		if !strings.Contains(apiErr.Message, "UserID") || !strings.Contains(apiErr.Message, "PropertyID") {
			t.Errorf("combined message %q missing field names", apiErr.Message)
		}
	})
}
