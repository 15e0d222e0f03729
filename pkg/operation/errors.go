package operation

import (
	"errors"
	"fmt"

	"birdnest/pkg/conflict"
)

var (
	// ErrAllDetailsFailed is returned by Load when no target could be described.
	ErrAllDetailsFailed = errors.New("Failed to load information for any packages") //nolint:staticcheck

	// ErrUnsupported is returned by Confirm when the backend cannot perform the kind.
	ErrUnsupported = errors.New("operation not supported by this package tool")

	// ErrInvalidTransition is returned when a method is called in the wrong phase.
	ErrInvalidTransition = errors.New("invalid operation transition")
)

// ConflictError is returned by Confirm when the operation ended in ConflictDetected.
type ConflictError struct {
	Report *conflict.Report
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Report.Summary, e.Report.Category)
}

func transitionError(action string, from Phase) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, from)
}
