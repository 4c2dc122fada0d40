// Package domainerrors provides coded domain errors shared across services.
//
// Services construct these at trust boundaries and transports translate them
// into wire responses. Every error carries a stable machine code, an English
// message, and an optional language-keyed message map so callers can surface
// localized detail without string concatenation.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeRateLimited        Code = "rate_limited"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error with bilingual messages.
type Error struct {
	Code      Code
	Message   string            // English message, always set
	Localized map[string]string // language tag -> message, optional
	Field     string            // offending field for validation errors, optional
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// MessageIn returns the message for the given language tag, falling back to
// the English message when no localization exists.
func (e *Error) MessageIn(lang string) string {
	if msg, ok := e.Localized[lang]; ok {
		return msg
	}
	return e.Message
}

// New creates a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithLocalized adds a localized message for a language tag.
func (e *Error) WithLocalized(lang, message string) *Error {
	if e.Localized == nil {
		e.Localized = make(map[string]string, 1)
	}
	e.Localized[lang] = message
	return e
}

// WithField records the offending field for validation errors.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is; kept so callers can stay on one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
