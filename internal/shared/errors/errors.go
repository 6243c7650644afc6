package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeDomain         ErrorType = "DOMAIN_ERROR"
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict       ErrorType = "CONFLICT_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Store-specific errors
var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrInvalidCollectionID = errors.New("invalid collection ID")
	ErrInvalidDocumentID   = errors.New("invalid document ID")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrSubscriptionClosed  = errors.New("subscription closed")
	ErrNilClient           = errors.New("nil store client")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewDomainError creates a domain-specific error
func NewDomainError(message string) *AppError {
	return NewAppError(ErrorTypeDomain, message)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrCollectionNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ErrorTypeValidation
	}
	return errors.Is(err, ErrInvalidQuery) || errors.Is(err, ErrInvalidCollectionID) ||
		errors.Is(err, ErrInvalidDocumentID)
}

// IsInfrastructure checks if an error is an infrastructure error
func IsInfrastructure(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ErrorTypeInfrastructure
	}
	return false
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ErrorTypeConflict
	}
	return false
}
