// Package errors provides standardized error types for text rule scanning.
// This package defines ScanError for consistent error handling across
// configuration loading, rule compilation and file scanning, with operation
// context and error wrapping support.
package errors

import (
	"fmt"
)

// ScanError represents standardized errors across all scan operations
type ScanError struct {
	Op      string // Operation name (e.g., "scan", "compile", "load")
	Path    string // File path if applicable
	Rule    string // Rule key if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *ScanError) Error() string {
	msg := e.Message
	if e.Cause != nil && msg == "" {
		msg = e.Cause.Error()
	}

	switch {
	case e.Rule != "" && e.Path != "":
		return fmt.Sprintf("%s failed for rule '%s' on '%s': %s", e.Op, e.Rule, e.Path, msg)
	case e.Rule != "":
		return fmt.Sprintf("%s failed for rule '%s': %s", e.Op, e.Rule, msg)
	case e.Path != "":
		return fmt.Sprintf("%s failed on '%s': %s", e.Op, e.Path, msg)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, msg)
	}
}

// Unwrap returns the underlying cause for error wrapping support
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *ScanError) Is(target error) bool {
	if se, ok := target.(*ScanError); ok {
		return e.Op == se.Op && e.Message == se.Message &&
			(se.Path == "" || e.Path == se.Path) &&
			(se.Rule == "" || e.Rule == se.Rule)
	}
	return false
}

// Common error constructors for consistent error creation

// NewInvalidRuleError creates an error for rules that cannot be built
func NewInvalidRuleError(rule, message string) *ScanError {
	return &ScanError{
		Op:      "compile",
		Rule:    rule,
		Message: message,
	}
}

// NewInvalidExpressionError wraps a regular expression compile failure
func NewInvalidExpressionError(rule, param string, cause error) *ScanError {
	return &ScanError{
		Op:      "compile",
		Rule:    rule,
		Message: fmt.Sprintf("invalid %s: %v", param, cause),
		Cause:   cause,
	}
}

// NewFileReadError creates an error for files that could not be read
func NewFileReadError(path string, cause error) *ScanError {
	return &ScanError{
		Op:      "read",
		Path:    path,
		Message: "could not read file",
		Cause:   cause,
	}
}

// NewFileTooLargeError creates an error for files over the scan limit
func NewFileTooLargeError(path string, maxChars int) *ScanError {
	return &ScanError{
		Op:      "read",
		Path:    path,
		Message: fmt.Sprintf("maximum scan depth (%d chars) exceeded", maxChars),
		Cause:   ErrFileTooLarge,
	}
}

// NewValidationError creates an error for configuration validation failures
func NewValidationError(op, rule, message string) *ScanError {
	return &ScanError{
		Op:      op,
		Rule:    rule,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *ScanError {
	return &ScanError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrFileTooLarge indicates a file with more characters than the scan limit
	ErrFileTooLarge = &ScanError{
		Op:      "read",
		Message: "file exceeds maximum characters scanned",
	}

	// ErrNoRules indicates a scan configured without any rule
	ErrNoRules = &ScanError{
		Op:      "validation",
		Message: "no rules configured",
	}
)
