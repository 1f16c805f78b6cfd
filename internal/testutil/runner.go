package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
)

// FakeCall is one recorded FakeRunner invocation.
type FakeCall struct {
	Dir  string
	Name string
	Args []string
}

// FakeRunner stands in for a compiler toolchain. It records every call and,
// when CreateOutput is set, writes a small file at the output path found in
// the arguments ("-o PATH" or "/Fe:PATH").
type FakeRunner struct {
	CreateOutput bool
	Output       []byte
	Err          error
	// Versions answers "--version" queries by executable name.
	Versions map[string]string

	mu    sync.Mutex
	calls []FakeCall
}

// Run implements compiler.Runner.
func (r *FakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, FakeCall{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if len(args) == 1 && args[0] == "--version" {
		if v, ok := r.Versions[name]; ok {
			return []byte(v), nil
		}
		return nil, os.ErrNotExist
	}

	if r.CreateOutput && r.Err == nil {
		if out := OutputArg(args); out != "" {
			if err := os.WriteFile(out, []byte("fake module"), 0o644); err != nil {
				return nil, err
			}
		}
	}
	return r.Output, r.Err
}

// Calls returns a copy of the recorded calls.
func (r *FakeRunner) Calls() []FakeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FakeCall(nil), r.calls...)
}

// LastCall returns the most recent call. It panics when there was none.
func (r *FakeRunner) LastCall() FakeCall {
	calls := r.Calls()
	return calls[len(calls)-1]
}

// OutputArg finds the artifact path in a compiler command line.
func OutputArg(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
		if rest, ok := strings.CutPrefix(a, "/Fe:"); ok {
			return rest
		}
	}
	return ""
}
