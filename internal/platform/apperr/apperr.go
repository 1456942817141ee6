// Package apperr defines the error taxonomy shared by every service and the
// single place where those errors are turned into HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindBadRequest
	KindNotFound
	KindConflict
	KindMethodNotAllowed
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Message is safe to show to
// clients; Err keeps the underlying cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind != KindStorage {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches a details payload rendered next to the message.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func MethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: "Method not allowed"}
}

// Storage wraps a database failure. The driver message is passed through to
// the client, matching what operators of the old endpoints relied on.
func Storage(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindStorage, Message: "Database error: " + err.Error(), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
