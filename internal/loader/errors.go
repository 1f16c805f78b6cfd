package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by every operation before Initialize.
	ErrNotInitialized = errors.New("loader: registry not initialized")
	// ErrModuleNotLoaded is returned by ResolveSymbol for a path with no
	// outstanding reference.
	ErrModuleNotLoaded = errors.New("loader: module not loaded")
	// ErrSymbolNotFound is returned when a loaded module lacks a symbol.
	ErrSymbolNotFound = errors.New("loader: symbol not found")
)

// LoadError reports a module that could not be opened.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader: failed to load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LifetimeError is the panic value for reference counting bugs in the caller.
type LifetimeError struct {
	Op   string
	Path string
	Msg  string
}

func (e *LifetimeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("loader: %s %q: %s", e.Op, e.Path, e.Msg)
	}
	return fmt.Sprintf("loader: %s: %s", e.Op, e.Msg)
}
