// Package errors provides a lightweight structured error type (ProbeError)
// for category-based classification in agent backends, configuration loading,
// and the demo CLI. Probe code paths never let these escape into monitored
// code; they are routed to the diagnostic hook instead.
package errors

import (
	"fmt"
)

// ErrorCategory classifies a ProbeError for reporting.
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Agent backend errors
	CategoryAgent     ErrorCategory = "agent"
	CategoryStore     ErrorCategory = "store"
	CategoryTransport ErrorCategory = "transport"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ProbeError is a structured error with category, severity, and context
type ProbeError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ProbeError
type ContextFields map[string]any

// Error implements the error interface
func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ProbeError) WithContext(key string, value any) *ProbeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ProbeError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ProbeError {
	return &ProbeError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ProbeError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ProbeError {
	return &ProbeError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error at SeverityError
func WrapError(err error, category ErrorCategory, message string) *ProbeError {
	return Wrap(err, category, SeverityError, message)
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := err.(*ProbeError); ok {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns
// CategoryInternal if not a ProbeError
func GetCategory(err error) ErrorCategory {
	if pe, ok := err.(*ProbeError); ok {
		return pe.Category
	}
	return CategoryInternal
}
