// Package apperr defines the tagged error taxonomy shared by the transport,
// session and notes layers. Every failure crossing a package boundary is an
// *Error carrying one of the four kinds below plus a user-facing message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure for propagation policy decisions.
type Kind string

const (
	// KindValidation is a local precondition failure. It never reaches the network.
	KindValidation Kind = "validation"
	// KindNetwork is a transport or connectivity failure, timeouts included.
	KindNetwork Kind = "network"
	// KindAuth means the remote boundary rejected the session token.
	KindAuth Kind = "auth"
	// KindServer means the boundary processed the request but refused it
	// for a non-auth reason (not found, duplicate email, bad payload).
	KindServer Kind = "server"
)

// Error is a structured application error.
type Error struct {
	Kind        Kind
	Code        string
	Message     string
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithUserMessage sets the message shown to the user and returns the error.
func (e *Error) WithUserMessage(msg string) *Error {
	e.UserMessage = msg
	return e
}

// New creates a new Error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap wraps an existing error with a kind and code.
func Wrap(err error, kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf returns the kind of err, or the empty string for untagged errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsAuth reports whether err carries KindAuth.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsValidation reports whether err carries KindValidation.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// UserMessage extracts the user-facing message from err, falling back to a
// generic line so raw transport detail never leaks into the UI.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.UserMessage != "" {
			return appErr.UserMessage
		}
		return appErr.Message
	}
	return "Something went wrong. Please try again"
}
