package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrTrialNotFound   = fmt.Errorf("%w: trial", ErrNotFound)

	// Validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFrame    = fmt.Errorf("%w: malformed image frame", ErrInvalidArgument)
	ErrInvalidSigma    = fmt.Errorf("%w: negative blur sigma", ErrInvalidArgument)

	// Estimation errors
	ErrFitDidNotConverge       = errors.New("fit did not converge")
	ErrInsufficientVariability = errors.New("insufficient response variability")
	ErrInsufficientData        = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsEstimationError reports whether the error represents a failed or
// degenerate threshold estimate rather than a malformed request.
func IsEstimationError(err error) bool {
	return errors.Is(err, ErrFitDidNotConverge) ||
		errors.Is(err, ErrInsufficientVariability) ||
		errors.Is(err, ErrInsufficientData)
}
