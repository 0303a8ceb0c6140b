// Package errors provides a lightweight structured error type (RelverError)
// for category-based classification and retry semantics in the CLI and the
// scan orchestrator.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a relver error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Decision-run errors
	CategoryInput    ErrorCategory = "input"    // missing/unreadable source tree
	CategoryExtract  ErrorCategory = "extract"  // entry point exists but cannot be read
	CategoryManifest ErrorCategory = "manifest" // manifest cannot be persisted

	// Infrastructure errors
	CategoryStorage  ErrorCategory = "storage" // history database
	CategoryEvents   ErrorCategory = "events"  // decision event publishing
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the artifact's run
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// RelverError is a structured error with category, retryability, and context
type RelverError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for RelverError
type ContextFields map[string]any

// Error implements the error interface
func (e *RelverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RelverError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RelverError) WithContext(key string, value any) *RelverError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RelverError
func New(category ErrorCategory, severity ErrorSeverity, message string) *RelverError {
	return &RelverError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new RelverError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelverError {
	return &RelverError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable RelverError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *RelverError {
	e := Wrap(err, category, severity, message)
	e.Retryable = true
	return e
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// RelverError. Plain errors are never retryable.
func IsRetryable(err error) bool {
	var re *RelverError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CategoryOf returns the category of err if it is a RelverError, or
// CategoryInternal for plain errors.
func CategoryOf(err error) ErrorCategory {
	var re *RelverError
	if errors.As(err, &re) {
		return re.Category
	}
	return CategoryInternal
}
