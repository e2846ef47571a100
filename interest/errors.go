/*
errors.go - Error types for the interest engine

ERROR CATEGORIES:
  1. Validation errors - Bad principal, range, category or parameters.
     Raised before any simulation starts.
  2. Rate errors - A required date has no rate (timeline gap) or the rate
     records themselves are inconsistent.

None of these are retryable: they all stem from incomplete or malformed
input, so callers show them to the user as they are.
*/
package interest

import (
	"errors"
	"fmt"

	"github.com/warp/interest-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the umbrella for every input-validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRange is returned when the end date is not after the start date.
	ErrInvalidRange = errors.New("invalid range: end must be after start")

	// ErrNoApplicableRate is returned when no rate window covers a required date.
	ErrNoApplicableRate = errors.New("no applicable rate")

	// ErrOverlappingRates is returned when two windows of one category overlap.
	ErrOverlappingRates = errors.New("overlapping rate windows")

	// ErrUnknownCategory is returned for categories other than legale, moratorio, fisso.
	ErrUnknownCategory = errors.New("unknown rate category")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // optional, more specific sentinel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// RangeError reports a calculation horizon whose end is not after its start.
type RangeError struct {
	Start generic.TimePoint
	End   generic.TimePoint
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s must be after start %s", e.End, e.Start)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange || target == ErrValidation
}

// NoApplicableRateError carries the date the timeline could not resolve.
type NoApplicableRateError struct {
	Category Category
	Date     generic.TimePoint
}

func (e *NoApplicableRateError) Error() string {
	return fmt.Sprintf("no applicable %s rate on %s", e.Category, e.Date)
}

func (e *NoApplicableRateError) Unwrap() error {
	return ErrNoApplicableRate
}

// OverlapError reports two rate records whose windows intersect.
type OverlapError struct {
	Category Category
	First    generic.Window
	Second   generic.Window
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s rate window %s overlaps %s", e.Category, e.Second, e.First)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlappingRates
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or
// incomplete rate data rather than an engine defect.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrNoApplicableRate) ||
		errors.Is(err, ErrOverlappingRates) ||
		errors.Is(err, ErrUnknownCategory)
}
