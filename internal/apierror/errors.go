// Package apierror defines the errors flows return across the API boundary.
// Each error carries a stable kind, an HTTP status and a message that is safe
// to show to the caller; the underlying cause stays in Err for logging.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an APIError.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindInvalidCode  Kind = "invalid_code"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// APIError is an error with a caller-facing message and status.
type APIError struct {
	Kind     Kind
	HTTPCode int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// As extracts an APIError from the chain of err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for anything that is not an APIError.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return KindInternal
}

func newError(kind Kind, code int, msg string, err error) *APIError {
	return &APIError{Kind: kind, HTTPCode: code, Message: msg, Err: err}
}

func NewErrValidation(msg string) *APIError {
	return newError(KindValidation, http.StatusBadRequest, msg, nil)
}

func NewErrEmailRequired() *APIError {
	return NewErrValidation("email is required")
}

func NewErrMissingFields() *APIError {
	return NewErrValidation("email, password and code are required")
}

func NewErrInvalidCode() *APIError {
	return newError(KindInvalidCode, http.StatusBadRequest, "verification code is invalid or expired", nil)
}

func NewErrEmailIsTaken(email string) *APIError {
	return newError(KindConflict, http.StatusConflict, fmt.Sprintf("email %s is already registered", email), nil)
}

func NewErrInvalidCredentials() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "invalid email or password", nil)
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "missing token", nil)
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "unauthorized", nil)
}

func NewErrSessionRevoked() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "token revoked or expired", nil)
}

func NewErrNotFound(what string) *APIError {
	return newError(KindNotFound, http.StatusNotFound, what+" not found", nil)
}

func NewErrInternalServerError(err error) *APIError {
	return newError(KindInternal, http.StatusInternalServerError, "internal server error", err)
}
