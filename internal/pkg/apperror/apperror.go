// Package apperror carries the error kinds the service distinguishes when
// deciding whether a failure aborts startup, rejects a request, or is
// reported per attachment.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is a string-based error classification; it serializes as-is in API responses.
type Kind string

const (
	// KindConfiguration is fatal at startup (missing credential, bad catalog).
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindValidation rejects a request before any storage call is made.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindNotFound indicates an unknown session or checklist item.
	KindNotFound Kind = "NOT_FOUND"

	// KindUnauthorized indicates a missing or invalid session token.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindBackend covers network, auth and quota failures from the storage backend.
	KindBackend Kind = "BACKEND_ERROR"

	// KindPayloadTooLarge is raised by intake policy or by the storage backend.
	KindPayloadTooLarge Kind = "PAYLOAD_TOO_LARGE"

	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Configuration(op, message string) *Error {
	return New(KindConfiguration, op, message)
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Unauthorized(op, message string) *Error {
	return New(KindUnauthorized, op, message)
}

func PayloadTooLarge(op, message string) *Error {
	return New(KindPayloadTooLarge, op, message)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human-facing part of err without the operation prefix.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		if appErr.Err != nil {
			return appErr.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
