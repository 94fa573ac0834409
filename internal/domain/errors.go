package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrValidation             = errors.New("validation error")
	ErrConflict               = errors.New("conflict")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	ErrDuplicateOption        = errors.New("duplicate option")
	ErrInvalidState           = errors.New("invalid state")
	ErrExternalService        = errors.New("external service failure")
	ErrSessionComplete        = errors.New("session complete")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// StateError reports a rejected QuestionItem transition.
type StateError struct {
	From QuestionState
	To   QuestionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ExternalServiceError wraps a failure of an out-of-process collaborator
// (image generation, object storage).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause, so callers can
// match ErrExternalService as well as context.DeadlineExceeded.
func (e *ExternalServiceError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}
