// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-lockfree.

package api

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-lockfree/core/atomicx"
)

// Common errors used across the library.
//
// CAS contention is deliberately absent: a failed compare-and-swap is a retry
// signal, never an error.
var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrSlotsExhausted  = fmt.Errorf("reclamation slots exhausted")
	ErrOutOfMemory     = fmt.Errorf("node arena exhausted")

	// ErrReclamationDefect is the panic value for Live/Retired/Freed state
	// violations: double retire, double free, use of a freed node.
	ErrReclamationDefect = errors.New("reclamation defect")

	// ErrInvalidOrdering is the panic value for a memory ordering that is not
	// legal for the requested operation.
	ErrInvalidOrdering = atomicx.ErrInvalidOrdering
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeOutOfMemory
	ErrCodeDefect
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid-argument"
	case ErrCodeResourceExhausted:
		return "resource-exhausted"
	case ErrCodeOutOfMemory:
		return "out-of-memory"
	case ErrCodeDefect:
		return "defect"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel the error was built from.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap builds a structured error around a sentinel so errors.Is keeps working.
func Wrap(code ErrorCode, cause error, message string) *Error {
	e := NewError(code, fmt.Sprintf("%s: %v", message, cause))
	e.cause = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf extracts the ErrorCode carried by err, or ErrCodeOK for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrSlotsExhausted):
		return ErrCodeResourceExhausted
	case errors.Is(err, ErrOutOfMemory):
		return ErrCodeOutOfMemory
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument
	}
	return ErrCodeDefect
}
