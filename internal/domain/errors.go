package domain

import (
	"context"
	"errors"
	"fmt"
)

// Lookup failure taxonomy. Extractors return the first four; the
// orchestrator translates Blocked and Timeout into escalation and only
// surfaces failures from the final tier.
var (
	// ErrInvalidFormat means the input is not a recognizable UK registration.
	ErrInvalidFormat = errors.New("invalid registration format")
	// ErrVehicleNotFound is the authoritative negative: the source site
	// confirmed no vehicle exists for the registration.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrBlocked means the source site's anti-automation defenses triggered.
	ErrBlocked = errors.New("blocked by source site")
	// ErrTimeout means a bounded wait elapsed without a usable response.
	ErrTimeout = errors.New("lookup timed out")
	// ErrServiceUnavailable means browser automation exhausted its attempts.
	ErrServiceUnavailable = errors.New("vehicle data service unavailable")
)

// ErrorType is the wire-level failure classification.
type ErrorType string

const (
	ErrorTypeInvalidFormat   ErrorType = "invalid_format"
	ErrorTypeVehicleNotFound ErrorType = "vehicle_not_found"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeServiceError    ErrorType = "service_error"
)

// LookupError couples a lookup failure with its wire-level classification.
// Unwrap preserves the sentinel chain, so errors.Is checks against the
// taxonomy keep working on wrapped values.
type LookupError struct {
	Registration string
	Type         ErrorType
	Err          error
}

// Error returns the error message.
func (e *LookupError) Error() string {
	if e.Registration == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("lookup %s: %v", e.Registration, e.Err)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError classifies err and wraps it with the registration it
// belongs to.
func NewLookupError(registration string, err error) *LookupError {
	return &LookupError{
		Registration: registration,
		Type:         ClassifyError(err),
		Err:          err,
	}
}

// ClassifyError maps a lookup failure to its wire-level ErrorType.
// Blocked never reaches callers directly (it escalates first), so anything
// blocked-shaped that does surface is reported as a service error.
func ClassifyError(err error) ErrorType {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Type
	}

	switch {
	case errors.Is(err, ErrInvalidFormat):
		return ErrorTypeInvalidFormat
	case errors.Is(err, ErrVehicleNotFound):
		return ErrorTypeVehicleNotFound
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	default:
		return ErrorTypeServiceError
	}
}
