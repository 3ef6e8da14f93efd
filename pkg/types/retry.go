// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAttemptCount is the sentinel error wrapped by InvalidAttemptCountError.
	ErrInvalidAttemptCount = errors.New("invalid attempt count")
	// ErrInvalidRetryDelay is the sentinel error wrapped by InvalidRetryDelayError.
	ErrInvalidRetryDelay = errors.New("invalid retry delay")
)

type (
	// AttemptCount is the maximum number of tries for a retried operation.
	// Valid values are >= 1; attempt numbering starts at 1.
	AttemptCount int

	// InvalidAttemptCountError is returned when an AttemptCount is below 1.
	InvalidAttemptCountError struct {
		Value AttemptCount
	}

	// RetryDelay is the fixed pause between attempts of a retried operation.
	// The zero value (no pause) is valid; negative durations are not.
	RetryDelay time.Duration

	// InvalidRetryDelayError is returned when a RetryDelay is negative.
	InvalidRetryDelayError struct {
		Value RetryDelay
	}
)

// IsValid returns whether the AttemptCount allows at least one attempt.
func (a AttemptCount) IsValid() (bool, []error) {
	if a < 1 {
		return false, []error{&InvalidAttemptCountError{Value: a}}
	}
	return true, nil
}

// Error implements the error interface for InvalidAttemptCountError.
func (e *InvalidAttemptCountError) Error() string {
	return fmt.Sprintf("invalid attempt count %d (must be >= 1)", e.Value)
}

// Unwrap returns ErrInvalidAttemptCount for errors.Is() compatibility.
func (e *InvalidAttemptCountError) Unwrap() error { return ErrInvalidAttemptCount }

// Duration returns the delay as a time.Duration.
func (d RetryDelay) Duration() time.Duration { return time.Duration(d) }

// IsValid returns whether the RetryDelay is non-negative.
func (d RetryDelay) IsValid() (bool, []error) {
	if d < 0 {
		return false, []error{&InvalidRetryDelayError{Value: d}}
	}
	return true, nil
}

// Error implements the error interface for InvalidRetryDelayError.
func (e *InvalidRetryDelayError) Error() string {
	return fmt.Sprintf("invalid retry delay %s (must not be negative)", time.Duration(e.Value))
}

// Unwrap returns ErrInvalidRetryDelay for errors.Is() compatibility.
func (e *InvalidRetryDelayError) Unwrap() error { return ErrInvalidRetryDelay }
