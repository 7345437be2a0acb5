// Package errors provides error handling for annogen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces, rendered into build diagnostics when generation fails
//   - Error wrapping and context
//   - Hints for users running the generator
//
// Usage:
//
//	// Create new error
//	err := errors.New("marker applied to non-struct type")
//
//	// Wrap with context
//	if err := render(f); err != nil {
//	    return errors.Wrapf(err, "failed to render %s", name)
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrInvalidArgument) {
//	    // reject construction
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions and panics
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across annogen.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrInvalidArgument indicates a caller passed an absent or inconsistent argument
	ErrInvalidArgument = New("invalid argument")

	// ErrNotFound indicates the requested package, file or processor does not exist
	ErrNotFound = New("not found")

	// ErrDuplicateOutput indicates a generated file was requested twice in one round
	ErrDuplicateOutput = New("duplicate output")

	// ErrIncompatible indicates a processor does not support the running annogen version
	ErrIncompatible = New("incompatible")
)

// IsInvalidArgument checks if an error is or wraps ErrInvalidArgument
func IsInvalidArgument(err error) bool {
	return err != nil && Is(err, ErrInvalidArgument)
}

// NewInvalidArgumentError creates an invalid-argument error with a formatted message
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, fmt.Sprintf(format, args...))
}

// FromPanic converts a recovered panic value into an error carrying a stack trace.
func FromPanic(r interface{}) error {
	if err, ok := r.(error); ok {
		return WithStack(Wrap(err, "panic"))
	}
	return WithStack(Newf("panic: %v", r))
}

// Trace renders err with its full cause chain and stack traces.
// Used for diagnostics where the user needs to see where generation failed.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
