// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
//
// Sentinel errors are declared once with New and wrapped at the call site:
//
//	var ErrNotFound = errors.New("not found")
//	...
//	return status.ErrNotFound.Wrap(err)
//
// Wrapping never mutates the sentinel, so Is(wrapped, ErrNotFound) holds
// while concurrent callers wrap the same sentinel.
package errors

import (
	stderr "errors"
	"fmt"

	"go.uber.org/zap"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg    string
	err    error
	parent *Error
}

// Error message, followed by the message of the wrapped cause if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error. The receiver is left unchanged.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, parent: e}
}

// WrapMessage appends some context to the error message. The receiver is left unchanged.
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{msg: e.msg + ": " + fmt.Sprintf(format, args...), err: e.err, parent: e}
}

// WrapWithLog wraps a nested error and logs it as an error with some extra fields
func (e *Error) WrapWithLog(l *zap.Logger, err error, fields ...zap.Field) *Error {
	wrapped := e.Wrap(err)
	if l != nil {
		l.Error(e.msg, append(fields, zap.Error(err))...)
	}
	return wrapped
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	for p := e; p != nil; p = p.parent {
		if p == target {
			return true
		}
	}
	return false
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
