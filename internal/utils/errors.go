// Package utils provides shared helpers for the translation core.
package utils

import "fmt"

// ContextError carries a short context string around a root cause.
type ContextError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ContextError{
		Context: context,
		Cause:   cause,
	}
}
