package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound            = errors.New("resource not found")
	ErrTrialNotFound       = fmt.Errorf("%w: trial", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant", ErrNotFound)

	// Data-quality errors (non-fatal, absorbed per row or per test)
	ErrInsufficientData   = errors.New("insufficient data for analysis")
	ErrInsufficientGroups = errors.New("insufficient groups for comparison")
	ErrMalformedPath      = errors.New("malformed movement path")

	// Contract errors (fatal, surfaced to the caller)
	ErrSchemaViolation = errors.New("input schema contract violation")
	ErrUnknownColumn   = fmt.Errorf("%w: unknown dependent variable column", ErrSchemaViolation)
	ErrUnknownGrouping = fmt.Errorf("%w: unknown grouping column", ErrSchemaViolation)
)

// NewNotFoundError builds a not-found error with resource context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewSchemaError builds a schema-violation error for a named column
func NewSchemaError(column string, reason string) error {
	return fmt.Errorf("%w: column %q: %s", ErrSchemaViolation, column, reason)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDataQualityError reports whether err is a non-fatal data-quality condition
func IsDataQualityError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInsufficientGroups) ||
		errors.Is(err, ErrMalformedPath)
}

// IsSchemaViolation reports whether err indicates a caller contract violation
func IsSchemaViolation(err error) bool {
	return errors.Is(err, ErrSchemaViolation)
}
