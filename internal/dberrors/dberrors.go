// Package dberrors defines the semantic error kinds raised across the
// storage and execution layers, along with the rollback policy attached to
// each kind. Kinds are plain sentinels wrapped with github.com/pkg/errors so
// a RuntimeError carries an actual stack trace instead of a synthesized one.
package dberrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a semantic error category. It is not a Go type hierarchy: every
// raised error is wrapped with a Kind via New/Wrap and inspected with Is.
type Kind uint8

const (
	SyntaxError Kind = iota
	ValidationError
	AmbiguousColumn
	PageOverflow
	StorageCorrupt
	TransactionMisuse
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case ValidationError:
		return "ValidationError"
	case AmbiguousColumn:
		return "AmbiguousColumn"
	case PageOverflow:
		return "PageOverflow"
	case StorageCorrupt:
		return "StorageCorrupt"
	case TransactionMisuse:
		return "TransactionMisuse"
	case RuntimeError:
		return "RuntimeError"
	default:
		return "UnknownError"
	}
}

// Rollback reports whether an error of this kind requires the owning
// transaction to be rolled back, per spec §7.
func (k Kind) Rollback() bool {
	switch k {
	case PageOverflow, StorageCorrupt, RuntimeError:
		return true
	default:
		return false
	}
}

// DBError is a Kind-tagged error carrying a message and, via the embedded
// pkg/errors cause, a stack trace.
type DBError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DBError) Unwrap() error { return e.cause }

// StackTrace satisfies the pkg/errors stackTracer interface when the
// wrapped cause carries one, so callers can print RuntimeError's
// "error text + stack" signal (§7).
func (e *DBError) StackTrace() errors.StackTrace {
	type tracer interface{ StackTrace() errors.StackTrace }
	if t, ok := e.cause.(tracer); ok {
		return t.StackTrace()
	}
	return nil
}

// New raises a fresh error of the given kind with a stack captured at the
// call site.
func New(kind Kind, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return &DBError{Kind: kind, Message: msg, cause: errors.New(msg)}
}

// Wrap attaches a Kind and message to an existing error, preserving its
// stack trace if it has one or creating one if it doesn't.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return &DBError{Kind: kind, Message: msg + ": " + err.Error(), cause: errors.Wrap(err, msg)}
}

// KindOf extracts the Kind of err, defaulting to RuntimeError for errors
// that never passed through New/Wrap.
func KindOf(err error) Kind {
	var de *DBError
	if errors.As(err, &de) {
		return de.Kind
	}
	return RuntimeError
}

// ShouldRollback reports the rollback policy (§7) for any error, wrapped
// or not.
func ShouldRollback(err error) bool {
	return KindOf(err).Rollback()
}
