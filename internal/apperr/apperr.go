// Package apperr defines the user-facing error categories of the review
// engine.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	// KindConfig is a recoverable configuration problem, such as a missing
	// commit identity. Only the action that needed it is aborted.
	KindConfig Kind = "config"
	// KindBoundary means the walk boundaries could not be computed and the
	// whole load fails.
	KindBoundary Kind = "boundary"
	// KindCommit is a failure to write a new commit.
	KindCommit Kind = "commit"
	// KindTool means no usable external editor or viewer was found, or it
	// failed.
	KindTool Kind = "tool"
)

// Error is an error with a kind and an optional remediation hint.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
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

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap wraps err with a kind and message.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf wraps err with a kind and formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithHint returns e with hint set.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// HintOf returns the remediation hint carried by err, if any.
func HintOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}
