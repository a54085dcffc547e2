// Package apperr defines the error taxonomy shared by the services and its
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument    Code = "invalid-argument"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeInvalidCredential  Code = "invalid-2fa"
	CodePermissionDenied   Code = "permission-denied"
	CodeNotFound           Code = "not-found"
	CodeAlreadyExists      Code = "already-exists"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeResourceExhausted  Code = "resource-exhausted"
	CodeInternal           Code = "internal"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return string(e.Code) + ": " + e.Msg
	}
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Msg == "" && t.Err == nil
	}
	return false
}

// Code-only values for use with errors.Is.
var (
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated}
	ErrInvalidCredential  = &Error{Code: CodeInvalidCredential}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists}
	ErrFailedPrecondition = &Error{Code: CodeFailedPrecondition}
	ErrResourceExhausted  = &Error{Code: CodeResourceExhausted}
	ErrInternal           = &Error{Code: CodeInternal}
)

func InvalidArgument(msg string) error    { return &Error{Code: CodeInvalidArgument, Msg: msg} }
func Unauthenticated(msg string) error    { return &Error{Code: CodeUnauthenticated, Msg: msg} }
func InvalidCredential() error            { return &Error{Code: CodeInvalidCredential} }
func PermissionDenied(msg string) error   { return &Error{Code: CodePermissionDenied, Msg: msg} }
func NotFound(msg string) error           { return &Error{Code: CodeNotFound, Msg: msg} }
func AlreadyExists(msg string) error      { return &Error{Code: CodeAlreadyExists, Msg: msg} }
func FailedPrecondition(msg string) error { return &Error{Code: CodeFailedPrecondition, Msg: msg} }
func ResourceExhausted(msg string) error  { return &Error{Code: CodeResourceExhausted, Msg: msg} }

// Internal wraps a storage or infrastructure failure. The cause is kept for
// logging but never rendered to clients.
func Internal(err error) error {
	return &Error{Code: CodeInternal, Err: err}
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeFailedPrecondition:
		return http.StatusConflict
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text sent to clients for err.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Code == CodeInternal {
		return "internal error"
	}
	if e.Code == CodeInvalidCredential {
		return string(CodeInvalidCredential)
	}
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Code)
}
