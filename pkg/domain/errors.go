package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared across the service. Handlers map these to
// HTTP status codes in pkg/response.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// DomainError wraps a sentinel kind with a human-readable message and an
// optional typed cause (e.g. a coupon validation failure).
type DomainError struct {
	Err     error
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel kind and the cause for errors.Is checks.
func (e *DomainError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// NewNotFoundError creates a not-found error for an entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: message}
}

// WrapValidation creates a validation error that preserves its typed cause.
func WrapValidation(cause error) *DomainError {
	return &DomainError{Err: ErrValidation, Message: cause.Error(), Cause: cause}
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: message}
}
