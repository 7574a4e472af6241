// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks structurally malformed input. Fatal to the single
	// call; callers should not retry.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable marks a transient failure of one of the backing
	// stores. Best-effort callers (interaction tracking, background
	// recompute) log and continue; feed assembly surfaces it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// validationErr wraps a field-level problem with ErrValidation.
func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr wraps a store failure with ErrStoreUnavailable while preserving
// the underlying error chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
