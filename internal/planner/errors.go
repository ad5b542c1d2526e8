package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates that caller-supplied input was rejected before touching the store.
	ErrValidation = errors.New("planner: validation failed")
	// ErrNotFound indicates that the referenced record does not exist.
	ErrNotFound = errors.New("planner: record not found")
	// ErrQueueFull indicates that the next actions queue is at capacity.
	ErrQueueFull = fmt.Errorf("planner: next actions queue is full (%d active)", NextActionCapacity)

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
)

// FieldError describes which input field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap lets callers match field errors against ErrValidation.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func invalidField(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// ServiceError carries a stable code for unexpected storage failures.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IsDomainError reports whether err is an expected outcome (validation, capacity, not found)
// rather than a system failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrQueueFull) || errors.Is(err, ErrNotFound)
}
