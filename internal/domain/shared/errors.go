package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError("NOT_FOUND", "Resource not found")
	ErrMultipleResults = NewDomainError("MULTIPLE_RESULTS", "More than one resource matches the query")
	ErrAlreadyExists   = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrNothingToUpdate = NewDomainError("NOTHING_TO_UPDATE_OR_CREATE", "Nothing to update or create")
	ErrUnsupported     = NewDomainError("UNSUPPORTED", "Operation is not supported by this component")
)

// ValidationItem is a single validation failure located by a field path.
type ValidationItem struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	Items []ValidationItem `json:"detail"`
}

// NewValidationError builds a ValidationError with a single item.
func NewValidationError(msg string, loc ...string) *ValidationError {
	return &ValidationError{Items: []ValidationItem{{Loc: loc, Msg: msg}}}
}

// Add appends a failure and returns the receiver.
func (e *ValidationError) Add(msg string, loc ...string) *ValidationError {
	e.Items = append(e.Items, ValidationItem{Loc: loc, Msg: msg})
	return e
}

// HasItems reports whether any failure was recorded.
func (e *ValidationError) HasItems() bool {
	return e != nil && len(e.Items) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		if len(item.Loc) == 0 {
			parts = append(parts, item.Msg)
			continue
		}
		parts = append(parts, strings.Join(item.Loc, ".")+": "+item.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ConfigurationError is returned when a component is assembled incorrectly.
// It is raised at construction time, never while serving a call.
type ConfigurationError struct {
	Component string
	Reason    string
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: improperly configured: %s", e.Component, e.Reason)
}
