package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for handlers and callers.
type Code string

const (
	// CodeValidation marks a user-correctable input problem.
	CodeValidation Code = "VALIDATION"
	// CodeNotConfigured marks a routing attempt against a workflow that
	// has no variant for the entity's cost-centre type.
	CodeNotConfigured Code = "NOT_CONFIGURED"
	// CodeRemoteFailure marks a failed call to the persistence service.
	CodeRemoteFailure Code = "REMOTE_FAILURE"
	// CodeConflictBlocked marks a destructive action denied by the usage guard.
	CodeConflictBlocked Code = "CONFLICT_BLOCKED"
	// CodeNotFound marks a missing resource.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInternal marks everything else.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error. Field is set only for validation errors.
type Error struct {
	Code    Code
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// InvalidInput creates a validation error for a named field.
func InvalidInput(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

// NotFound creates a not-found error for a resource/id pair.
func NotFound(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// NotConfigured creates a routing error for a missing variant.
func NotConfigured(workflowID, costCentreType string) *Error {
	return &Error{
		Code:    CodeNotConfigured,
		Message: fmt.Sprintf("workflow %s has no variant for cost centre type %q", workflowID, costCentreType),
	}
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
