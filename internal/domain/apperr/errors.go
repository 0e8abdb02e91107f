// Package apperr holds the error taxonomy shared by the intake screens,
// the remote store client and the API server.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for client-detected input problems. Requests
	// failing validation are never sent to the remote store.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when the caller lacks access to the record
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServer is returned when the remote store fails a save or upload
	ErrServer = errors.New("server error")

	// ErrTransportMismatch is returned when a binary artifact was expected
	// but the response declared a JSON body
	ErrTransportMismatch = errors.New("transport mismatch: expected binary content")

	// ErrAlreadyTracked is returned when an invoice already has a tracker entry
	ErrAlreadyTracked = errors.New("invoice is already in the tracker")
)

// ValidationError reports a single invalid field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StatusError carries the HTTP status and server message of a failed
// remote call. It unwraps to the matching taxonomy sentinel.
type StatusError struct {
	StatusCode int
	Message    string
	kind       error
}

// NewStatusError classifies an HTTP status code into the error taxonomy
func NewStatusError(statusCode int, message string) *StatusError {
	return &StatusError{StatusCode: statusCode, Message: message, kind: classify(statusCode)}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (status %d): %s", e.kind, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func classify(statusCode int) error {
	switch {
	case statusCode == 404:
		return ErrNotFound
	case statusCode == 401 || statusCode == 403:
		return ErrUnauthorized
	case statusCode == 400 || statusCode == 409 || statusCode == 422:
		return ErrValidation
	default:
		return ErrServer
	}
}
