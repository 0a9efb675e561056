package models

import (
	"errors"
	"fmt"
)

// ErrUnreadableWorkbook indicates the byte stream could not be decoded as
// a supported tabular format, or decoded to zero sheets. Fatal, never retried.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")

// ErrPeriodAxisNotFound indicates no row or column qualified as the time
// axis. Soft: callers may still proceed toward a manual mapping.
var ErrPeriodAxisNotFound = errors.New("period axis not found")

// ErrInsufficientMetrics indicates a finalized mapping produced zero
// periods with usable values. Surfaced to callers as "use manual mapping".
var ErrInsufficientMetrics = errors.New("insufficient metrics extracted")

// ServiceError wraps a failure of the external structure advisor service.
// Retryable is true only for throttling; auth, config and response-parse
// failures are terminal and trigger an immediate heuristic fallback.
type ServiceError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *ServiceError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("advisor service error (%s, %s): %v", e.Op, kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a ServiceError marked retryable.
func IsRetryable(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Retryable
}
