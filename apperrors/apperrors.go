// Package apperrors defines the error kinds shared by services and transports.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindVerification
	KindAuthorization
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
	KindUpstreamTimeout
)

// NonFieldErrors is the key used for errors that don't belong to a single field.
const NonFieldErrors = "non_field_errors"

// Error is an application error with an optional set of field-level messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error kind.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindAuthentication, KindVerification:
		// Rejected credentials are reported like invalid login input.
		// Missing or bad bearer tokens are answered with 401 by the auth filter.
		return http.StatusBadRequest
	case KindAuthorization, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FieldErrors returns the field-level messages, falling back to the message
// under NonFieldErrors.
func (e *Error) FieldErrors() map[string][]string {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return map[string][]string{NonFieldErrors: {e.Message}}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string) *Error {
	return New(KindValidation, message, nil)
}

// NewFieldValidation builds a validation error from per-field messages.
func NewFieldValidation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

func NewAuthentication(message string) *Error {
	return New(KindAuthentication, message, nil)
}

func NewVerification(message string) *Error {
	return New(KindVerification, message, nil)
}

func NewAuthorization(message string) *Error {
	return New(KindAuthorization, message, nil)
}

func NewForbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

func NewNotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func NewConflict(message string) *Error {
	return New(KindConflict, message, nil)
}

func NewUpstream(message string, err error) *Error {
	return New(KindUpstream, message, err)
}

func NewUpstreamTimeout(message string, err error) *Error {
	return New(KindUpstreamTimeout, message, err)
}

func NewInternal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
