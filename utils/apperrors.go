package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so the HTTP layer can map them to a status
// code without inspecting message text.
type ErrorKind string

const (
	ErrValidation    ErrorKind = "validation"
	ErrAuth          ErrorKind = "auth"
	ErrNotFound      ErrorKind = "not_found"
	ErrConfiguration ErrorKind = "configuration"
	ErrProvisioning  ErrorKind = "provisioning"
	ErrPublish       ErrorKind = "publish"
	ErrRateLimit     ErrorKind = "rate_limit"
	ErrTimeout       ErrorKind = "timeout"
	ErrConflict      ErrorKind = "conflict"
	ErrInternal      ErrorKind = "internal"
)

// AppError carries a kind plus a short human-readable message. Upstream
// payloads are summarized into Message, never attached verbatim.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates an AppError with the given kind and message.
func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WrapError creates an AppError preserving the underlying cause.
func WrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to internal for plain errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// StatusCode maps an error to the HTTP status the API responds with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuth:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrRateLimit:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
