package rendergraph

import (
	"errors"
	"fmt"
)

// Kind classifies a Graph failure.
type Kind int

const (
	KindInvalidSourceFile Kind = iota + 1
	KindPreprocess
	KindCompile
	KindLoad
	KindEntryPointNotFound
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInvalidSourceFile:
		return "invalid source file"
	case KindPreprocess:
		return "preprocess failed"
	case KindCompile:
		return "compile failed"
	case KindLoad:
		return "load failed"
	case KindEntryPointNotFound:
		return "entry point not found"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	ErrNotParsed   = errors.New("rendergraph: no source loaded")
	ErrNotCompiled = errors.New("rendergraph: not compiled")
	ErrNotReady    = errors.New("rendergraph: module not ready")
	ErrClosed      = errors.New("rendergraph: graph is closed")
	ErrUnknownPass = errors.New("rendergraph: unknown pass")
	// ErrBindRejected is returned when the module refuses a binding, for
	// example a parameter index past the end of the pass's list.
	ErrBindRejected = errors.New("rendergraph: binding rejected by module")
	// ErrBindingUnsupported is returned by Bind for a module without the
	// binding entry point.
	ErrBindingUnsupported = errors.New("rendergraph: module does not export a binding entry point")
)

// Error is a failed Graph operation.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rendergraph: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("rendergraph: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
