// Package services provides the workflow editing service used by the HTTP and
// command line surfaces.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCollection is returned when an element collection name is not recognised.
	ErrUnknownCollection = errors.New("unknown element collection")
	// ErrWorkflowNil is returned when a nil workflow is handed to the service.
	ErrWorkflowNil = errors.New("workflow cannot be nil")
	// ErrIDMismatch is returned when a saved document carries an id other than the addressed one.
	ErrIDMismatch = errors.New("workflow id does not match")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a malformed request rather than a
// workflow rule or schema failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownCollection) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrIDMismatch)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
