// Package errs defines the error taxonomy shared by every sec-lsm-manager
// component: a small closed set of Kinds (spec section "Error handling
// design") plus a wrapper that keeps the causal chain usable with errors.Is
// and errors.As while tagging the Kind a caller needs to decide on rollback.
package errs

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies a failure the way the rest of the daemon needs to react to
// it, independent of which component raised it.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	InvalidArgument
	Conflict
	AlreadyExists
	Forbidden
	IOError
	TemplateError
	CompileError
	PolicyStoreError
	NameTooLong
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case Conflict:
		return "conflict"
	case AlreadyExists:
		return "already exists"
	case Forbidden:
		return "forbidden"
	case IOError:
		return "io error"
	case TemplateError:
		return "template error"
	case CompileError:
		return "compile error"
	case PolicyStoreError:
		return "policy store error"
	case NameTooLong:
		return "name too long"
	case OutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged, op-scoped, wrapped error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error for op, optionally wrapping cause.
func New(kind Kind, op string, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Errorf is New with a formatted cause, following the teacher's xerrors.Errorf
// %w convention so the result still unwraps to any error passed as %w.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: xerrors.Errorf(format, args...)}
}

// KindOf walks the error chain looking for the first *Error and returns its
// Kind, or Unknown if err carries no Kind at all.
func KindOf(err error) Kind {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
