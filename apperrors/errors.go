package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEngineFailure     = errors.New("segmentation engine failure")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError reports user-correctable input problems (bad category,
// unreadable image, missing fields). Nothing is mutated when one is returned.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Detail }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an illegal component status change. The
// component is left untouched.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// EngineError wraps a segmentation engine failure. Retryable errors (timeouts,
// transient model failures) leave no scene or component rows behind, so the
// caller may resubmit the same image.
type EngineError struct {
	Err       error
	Retryable bool
}

func (e *EngineError) Error() string {
	return "segmentation engine failure: " + e.Err.Error()
}
func (e *EngineError) Unwrap() error { return ErrEngineFailure }

// Enginef builds a retryable EngineError.
func Enginef(format string, args ...interface{}) error {
	return &EngineError{Err: fmt.Errorf(format, args...), Retryable: true}
}

// PersistenceError wraps store-level failures (transaction conflicts, the
// database being unavailable). Callers may retry with backoff.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persistence failure: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return ErrPersistence }
