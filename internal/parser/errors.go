package parser

import "fmt"

// ParseError reports malformed pass syntax at a source position.
type ParseError struct {
	Line   int
	Offset int
	// Pass is the name of the pass being parsed, when known.
	Pass string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Pass != "" {
		return fmt.Sprintf("line %d: pass %s: %s", e.Line, e.Pass, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error { return e.Err }
