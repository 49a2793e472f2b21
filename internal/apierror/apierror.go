// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Typed domain errors ───────────────────────────────────────────────────────
// Services return a *DomainError (or wrap one) so handlers can map the failure
// class to an HTTP status without matching on message strings.

// Kind classifies a domain failure.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindStorage
)

// DomainError carries a failure class plus a client-safe message.
type DomainError struct {
	Kind Kind
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func Invalid(msg string) *DomainError   { return &DomainError{Kind: KindInvalidInput, Msg: msg} }
func NotFound(msg string) *DomainError  { return &DomainError{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) *DomainError { return &DomainError{Kind: KindForbidden, Msg: msg} }
func Conflict(msg string) *DomainError  { return &DomainError{Kind: KindConflict, Msg: msg} }
func Storage(msg string) *DomainError   { return &DomainError{Kind: KindStorage, Msg: msg} }

// IsKind reports whether err is (or wraps) a DomainError of the given kind.
func IsKind(err error, k Kind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == k
}

// Status maps an error to its HTTP status and client-safe detail message.
// Unknown errors map to 500 with a generic message — internal error text
// never reaches the client.
func Status(err error) (int, string) {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, "Error interno del servidor"
	}
	switch de.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest, de.Msg
	case KindNotFound:
		return http.StatusNotFound, de.Msg
	case KindForbidden:
		return http.StatusForbidden, de.Msg
	case KindConflict:
		return http.StatusConflict, de.Msg
	default:
		return http.StatusInternalServerError, "Error interno del servidor"
	}
}
