// Package errs provides the error type shared by the connectivity drivers,
// the inspectors and the outer surfaces (CLI, HTTP).
//
// Drivers classify native errors once, at the boundary, into an ErrKind.
// Inspectors return those errors unchanged. Callers branch on the kind:
//
//	cols, err := insp.ColumnInfo(ctx, "users")
//	if errs.IsTimeout(err) {
//	    // retry later
//	}
//
// Absence of a table or column is not an error: lookups return nil.
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing engine-specific codes.
type ErrKind int

const (
	ErrKindUnknown           ErrKind = iota
	ErrKindNotFound                  // no rows
	ErrKindConnectionFailed          // cannot reach or authenticate to the server
	ErrKindTimeout                   // context deadline / cancellation
	ErrKindQueryFailed               // catalog query rejected by the server
	ErrKindInvalidInput              // bad arguments from the caller
	ErrKindPermissionDenied          // catalog not readable by this user
	ErrKindUnsupportedEngine         // client identifier not in the known set
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupportedEngine:
		return "unsupported_engine"
	default:
		return "unknown"
	}
}

// Error is the error type returned by drivers and the factory.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // native driver error, kept for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to reach the native error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around a native cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// UnsupportedEngine reports a client identifier the factory does not know.
func UnsupportedEngine(client string) *Error {
	return Newf(ErrKindUnsupportedEngine, "unsupported database client %q", client)
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (missing table, column or catalog object).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether a catalog query failed on the server.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnsupportedEngine reports whether the factory rejected the client identifier.
func IsUnsupportedEngine(err error) bool {
	return KindOf(err) == ErrKindUnsupportedEngine
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
