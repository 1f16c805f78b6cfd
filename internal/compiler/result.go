package compiler

import (
	"errors"
	"fmt"
)

// Code classifies the outcome of a compile.
type Code int

const (
	Success Code = iota
	// FailureSourceInvalid means the source was missing, unreadable, empty
	// or could not be staged for the tool.
	FailureSourceInvalid
	FailureUnsupportedCompiler
	// FailureCommand covers spawn errors, nonzero exits and a tool that
	// exited zero without producing the artifact.
	FailureCommand
	FailureInvalidStandard
)

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case FailureSourceInvalid:
		return "source invalid"
	case FailureUnsupportedCompiler:
		return "unsupported compiler"
	case FailureCommand:
		return "compile command failed"
	case FailureInvalidStandard:
		return "invalid language standard"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Sentinels matched by errors.Is against an *Error.
var (
	ErrSourceInvalid       = errors.New("source file missing or unreadable")
	ErrUnsupportedCompiler = errors.New("unsupported compiler")
	ErrCommandFailed       = errors.New("compile command failed")
	ErrInvalidStandard     = errors.New("invalid language standard for compiler")
)

func (c Code) sentinel() error {
	switch c {
	case FailureSourceInvalid:
		return ErrSourceInvalid
	case FailureUnsupportedCompiler:
		return ErrUnsupportedCompiler
	case FailureCommand:
		return ErrCommandFailed
	case FailureInvalidStandard:
		return ErrInvalidStandard
	default:
		return nil
	}
}

// Result is the typed outcome of Compile.
type Result struct {
	Code         Code
	ArtifactPath string
	// Output is the combined stdout and stderr of the tool, when it ran.
	Output string
	Err    error
}

// OK reports whether the compile succeeded.
func (r Result) OK() bool { return r.Code == Success }

// Error returns nil on success and an *Error otherwise.
func (r Result) Error() error {
	if r.OK() {
		return nil
	}
	return &Error{Code: r.Code, Output: r.Output, Err: r.Err}
}

// Error is a failed Result as an error value.
type Error struct {
	Code   Code
	Output string
	Err    error
}

func (e *Error) Error() string {
	msg := "compile: " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel that belongs to e.Code.
func (e *Error) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && target == s
}

func failure(code Code, output string, format string, args ...any) Result {
	return Result{Code: code, Output: output, Err: fmt.Errorf(format, args...)}
}
