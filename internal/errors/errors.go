// Package errors defines the application error taxonomy. Errors carry a
// stable machine-readable code plus a human message and map onto HTTP status
// codes at the server boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable error classification.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeGenerationFailed    Code = "GENERATION_FAILED"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeDatabase            Code = "DATABASE_ERROR"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is the application error envelope.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is matches on code so sentinel comparisons work across wrap layers.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New returns an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, wrapped: err}
}

// NewInvalidInput flags a request validation failure.
func NewInvalidInput(message string) *Error {
	return New(CodeInvalidInput, message)
}

// NewNotFound flags a missing resource.
func NewNotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// WrapGeneration flags a model-output failure; these surface to the caller.
func WrapGeneration(err error, message string) *Error {
	return Wrap(CodeGenerationFailed, err, message)
}

// WrapDatabase flags a store failure.
func WrapDatabase(err error, message string) *Error {
	return Wrap(CodeDatabase, err, message)
}

// WrapInternal flags an unclassified failure.
func WrapInternal(err error, message string) *Error {
	return Wrap(CodeInternal, err, message)
}

// CodeOf extracts the code from any error, defaulting to INTERNAL_ERROR.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to the response status for the HTTP layer.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGenerationFailed:
		return http.StatusUnprocessableEntity
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
