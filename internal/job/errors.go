package job

import "errors"

var (
	// ErrNotFound is returned when a job id is absent from the store, which
	// covers both "never existed" and "expired past the retention window".
	ErrNotFound = errors.New("job not found")

	// ErrStoreUnavailable is returned when the underlying store is
	// unreachable. Callers must treat it as a degraded-service condition,
	// distinct from ErrNotFound.
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrConflict is returned for state-dependent policy rejections, such as
	// transitioning a terminal job or subscribing a notification on a failed one.
	ErrConflict = errors.New("conflicting job state")

	// ErrValidation is returned for malformed params before a job is created.
	ErrValidation = errors.New("invalid job params")
)

// RetryableError wraps transient worker-side failures that should trigger a
// queue requeue rather than a terminal FAILED result.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
