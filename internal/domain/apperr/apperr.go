// Package apperr defines the typed error taxonomy shared by all domain
// services. Errors are raised at the point of detection and travel unmodified
// to the transport layer, which maps the kind to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnauthenticated covers missing, invalid or expired credentials.
	KindUnauthenticated Kind = iota
	// KindForbidden covers an authenticated principal lacking role or ownership.
	KindForbidden
	// KindValidation covers malformed input and business-rule violations.
	KindValidation
	// KindNotFound covers missing entities, including entities the caller
	// is not allowed to know exist.
	KindNotFound
	// KindConflict covers uniqueness violations and overlapping date ranges.
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches a structured detail payload (offending field,
// conflicting id) for the response body.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func Validation(message string) *Error      { return New(KindValidation, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// KindOf reports the taxonomy kind of err, or false for untyped errors.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

// Is reports whether err is a taxonomy error of the given kind.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
