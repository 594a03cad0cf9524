package api

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind is one of the terminal outcomes a gate check can produce
// before a handler runs.
type FailureKind int

const (
	// Unauthenticated means the credential is missing, malformed, of an
	// unknown type, or failed audience/issuer/expiry checks.
	Unauthenticated FailureKind = iota + 1

	// Unauthorized means the credential authenticated but lacks a required
	// scope, or api-key access is not permitted for the route.
	Unauthorized

	// BadRequest means the request body failed the route's schema.
	BadRequest
)

// String returns the metric/log label for the kind.
func (k FailureKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case BadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// GateFailure is the error reported when a gate check rejects a request.
type GateFailure struct {
	Kind   FailureKind
	Detail string
}

// NewUnauthenticated returns the failure reported by the authentication stage.
func NewUnauthenticated() *GateFailure {
	return &GateFailure{Kind: Unauthenticated, Detail: "Unable to authenticate request"}
}

// NewUnauthorized returns the failure reported by the authorization stage.
func NewUnauthorized() *GateFailure {
	return &GateFailure{Kind: Unauthorized, Detail: "Unable to authorize request"}
}

// NewBadRequest returns the failure reported by the body validation stage.
func NewBadRequest(detail string) *GateFailure {
	if detail == "" {
		detail = "Bad request"
	}
	return &GateFailure{Kind: BadRequest, Detail: detail}
}

// Error implements the error interface.
func (f *GateFailure) Error() string {
	return f.Detail
}

// StatusCode maps the failure kind to its HTTP status.
func (f *GateFailure) StatusCode() int {
	switch f.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	case BadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error returned by a route handler that carries the HTTP
// status it should be reported with.
type Error struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error, defaulting to 500.
func (e *Error) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// NewInvalidRequestError creates a 400 handler error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// NewNotFoundError creates a 404 handler error.
func NewNotFoundError(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// NewServerError creates a 500 handler error wrapping cause.
func NewServerError(message string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusFromError returns the HTTP status carried by err (searching the
// wrap chain), or 500 when none is present.
func StatusFromError(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body written for every error.
type ErrorResponse struct {
	Error string `json:"error"`
}
