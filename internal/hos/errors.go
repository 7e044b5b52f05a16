package hos

import (
	"errors"
	"fmt"
	"time"

	"trucklog/internal/domain"
)

var (
	// ErrInvalidTransition is returned for out-of-order or overlapping interval writes.
	ErrInvalidTransition = errors.New("invalid duty status transition")

	// ErrMissingRoute is returned when a trip is simulated without a resolved route.
	ErrMissingRoute = errors.New("trip has no resolved route")

	// ErrAlreadyCertified is returned when certifying a certified log.
	ErrAlreadyCertified = errors.New("daily log already certified")

	// ErrValidation is returned when an input is rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyResolved is returned when resolving a resolved violation.
	ErrAlreadyResolved = domain.ErrViolationAlreadyResolved
)

// TransitionError describes a rejected timeline write.
type TransitionError struct {
	LogID    string
	Reason   string
	At       time.Time // The rejected timestamp
	Boundary time.Time // The timestamp it conflicts with, if any
}

func (e *TransitionError) Error() string {
	if e.Boundary.IsZero() {
		return fmt.Sprintf("invalid transition on log %s at %s: %s",
			e.LogID, e.At.Format(time.RFC3339), e.Reason)
	}
	return fmt.Sprintf("invalid transition on log %s at %s: %s (boundary %s)",
		e.LogID, e.At.Format(time.RFC3339), e.Reason, e.Boundary.Format(time.RFC3339))
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError names the offending field and value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func transitionErr(log *domain.DailyLog, at, boundary time.Time, reason string) error {
	return &TransitionError{LogID: log.ID, Reason: reason, At: at, Boundary: boundary}
}

// ParseDutyStatus converts a wire code into a DutyStatus.
func ParseDutyStatus(code string) (domain.DutyStatus, error) {
	s := domain.DutyStatus(code)
	if !s.IsValid() {
		return "", &ValidationError{Field: "duty_status", Value: code, Reason: "unknown duty status"}
	}
	return s, nil
}

// ValidateCycleUsed checks a reported cycle usage against the legal range.
func ValidateCycleUsed(hours float64) error {
	if hours != hours || hours < 0 || hours > MaxCycleHours {
		return &ValidationError{Field: "current_cycle_used", Value: hours, Reason: "must be between 0 and 70"}
	}
	return nil
}
