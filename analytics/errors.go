/*
errors.go - Error types shared by the engine and its collaborators

PURPOSE:
  The analytics functions themselves never fail: undefined results are
  expressed with Undefined. Errors only come from collaborators (the history
  fetcher, the stores) and are collected here so the API layer can map them
  to HTTP statuses with errors.Is.

ERROR CATEGORIES:
  1. Not found - a referenced vehicle or record does not exist
  2. Client errors - malformed cursor or record payload
  3. Backfill errors - the history fetch failed (wraps the cause)
*/
package analytics

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrFillUpNotFound  = errors.New("fill-up not found")
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrInvalidCursor is returned when a pagination cursor does not name a
	// fill-up of the vehicle being paged.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidRecord is returned by collaborators that refuse a record
	// before it reaches storage (missing date, non-positive liters, ...).
	ErrInvalidRecord = errors.New("invalid record")

	// ErrBackfillFailed wraps any failure of the history fetcher.
	ErrBackfillFailed = errors.New("backfill fetch failed")
)

// BackfillError reports which anchor the failed history fetch was for.
type BackfillError struct {
	Anchor time.Time
	Cap    int
	Err    error
}

func (e *BackfillError) Error() string {
	return fmt.Sprintf("backfill fill-ups older than %s (cap %d): %v",
		e.Anchor.Format(time.RFC3339), e.Cap, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *BackfillError) Unwrap() []error {
	return []error{ErrBackfillFailed, e.Err}
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVehicleNotFound) ||
		errors.Is(err, ErrFillUpNotFound) ||
		errors.Is(err, ErrExpenseNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCursor) ||
		errors.Is(err, ErrInvalidRecord)
}
