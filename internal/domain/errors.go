package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input has the wrong shape.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the policy denies an action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)

	// ErrDuplicateApplication is returned when the student already applied to the job.
	ErrDuplicateApplication = errors.New("student has already applied for this job")

	// ErrDuplicateUser is returned when the username or email is taken.
	ErrDuplicateUser = errors.New("username or email already registered")

	// ErrInvalidTransition is returned when the status table forbids the move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInactiveJob is returned when applying to a deactivated job.
	ErrInactiveJob = errors.New("job is no longer active")

	// ErrConcurrentModification is returned when a compare-and-set lost a race.
	ErrConcurrentModification = errors.New("resource was modified concurrently")

	// ErrStoreUnavailable is returned when the backing store failed or timed out.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new validation error for field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RetryableError wraps transient errors that the caller may retry after
// re-reading state.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was marked retryable.
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// Unavailable wraps an infrastructure failure as ErrStoreUnavailable while
// keeping the cause in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// IsTimeout reports whether err came from an expired or canceled context.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Stable error codes exposed to front ends.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthenticated      = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeDuplicateApplication = "DUPLICATE_APPLICATION"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeInactiveJob          = "INACTIVE_JOB"
	CodeConflict             = "CONFLICT"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

// Code classifies err into one of the stable codes.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthenticated
	case errors.Is(err, ErrUnauthorized):
		return CodeForbidden
	case errors.Is(err, ErrDuplicateApplication):
		return CodeDuplicateApplication
	case errors.Is(err, ErrDuplicateUser):
		return CodeAlreadyExists
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrInactiveJob):
		return CodeInactiveJob
	case errors.Is(err, ErrConcurrentModification):
		return CodeConflict
	case errors.Is(err, ErrStoreUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}
