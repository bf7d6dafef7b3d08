// Package errors provides standardized error types and helpers for the
// Selah codebase. These types circulate inside the resolution pipeline;
// none of the four public entry points lets them escape to callers.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates the remote provider rejected our credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream indicates a remote service failed or was unreachable
	ErrUpstream = errors.New("upstream unavailable")
	// ErrQuota indicates a quota or billing rejection from a remote service
	ErrQuota = errors.New("quota exceeded")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "passage", "daily verse", "study")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// UpstreamError represents a failed call to a remote collaborator
// (scripture provider, generative service) with enough context to decide
// how to degrade.
type UpstreamError struct {
	Service   string // "scripture-provider" or "generative"
	Operation string // Operation that was attempted
	Status    int    // HTTP status, 0 for transport failures
	Err       error  // Underlying error, if any
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Service, e.Operation, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s %s failed with status %d", e.Service, e.Operation, e.Status)
	default:
		return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	switch e.Status {
	case 401, 403:
		return ErrUnauthorized
	case 402, 429:
		return ErrQuota
	}
	if e.Err != nil {
		return e.Err
	}
	return ErrUpstream
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "reference", "XML module")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewUpstream creates an UpstreamError for a transport-level failure
func NewUpstream(service, operation string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Operation: operation, Err: err}
}

// NewUpstreamStatus creates an UpstreamError for a non-success HTTP status
func NewUpstreamStatus(service, operation string, status int) *UpstreamError {
	return &UpstreamError{Service: service, Operation: operation, Status: status}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewParse creates a ParseError
func NewParse(format, message string) *ParseError {
	return &ParseError{Format: format, Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
