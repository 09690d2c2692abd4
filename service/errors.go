package service

import (
	"errors"
	"fmt"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// ValidationError reports a client-supplied value that breaks a domain rule.
// Message is safe to return to the caller as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newMissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Missing required field: " + field}
}

func newInvalidFieldError(field, rule string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("Invalid %s: %s", field, rule)}
}

// MalformedPayloadError means the request body could not be read as a JSON object.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return "Invalid payload: request body must be a JSON object"
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// DataAccessError wraps any failure reported by the store.
type DataAccessError struct {
	Err error
}

func (e *DataAccessError) Error() string {
	return "Database error: " + e.Err.Error()
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}
