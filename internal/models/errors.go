package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload signals a batch document without a usable alerts list.
	ErrInvalidPayload = errors.New("invalid alert payload")
	// ErrUnsupportedSeverity signals a severity outside the closed set.
	ErrUnsupportedSeverity = errors.New("unsupported severity")
	// ErrDivisionByZeroInDeviation marks an alert whose deviation is undefined because its threshold is zero.
	ErrDivisionByZeroInDeviation = errors.New("division by zero in deviation")
	// ErrNonFiniteScore signals a deviation or priority that overflowed float64.
	ErrNonFiniteScore = errors.New("score is not finite")
)

// MalformedAlertError identifies the record and field that failed validation.
type MalformedAlertError struct {
	Index  int
	ID     string
	Field  string
	Reason string
}

func (e *MalformedAlertError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed alert %d (id %q): field %q: %s", e.Index, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed alert %d: field %q: %s", e.Index, e.Field, e.Reason)
}

// InvalidFilterConfigurationError reports a filter option that cannot be applied.
type InvalidFilterConfigurationError struct {
	Option string
	Reason string
}

func (e *InvalidFilterConfigurationError) Error() string {
	return fmt.Sprintf("invalid filter configuration: %s: %s", e.Option, e.Reason)
}

// IsInvalidInput reports whether err was caused by the caller's payload or filter options
// rather than by a processing failure.
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	var malformed *MalformedAlertError
	var filter *InvalidFilterConfigurationError
	return errors.As(err, &malformed) ||
		errors.As(err, &filter) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrUnsupportedSeverity) ||
		errors.Is(err, ErrNonFiniteScore)
}
