package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

type module struct {
	lib  Library
	refs int
}

// Registry is the reference counted table of loaded modules.
type Registry struct {
	mu          sync.Mutex
	opener      Opener
	initialized bool
	modules     map[string]*module
}

// NewRegistry returns an uninitialized registry. A nil opener selects
// NativeOpener.
func NewRegistry(opener Opener) *Registry {
	if opener == nil {
		opener = NativeOpener()
	}
	return &Registry{opener: opener}
}

// Initialize prepares the registry for use. It is idempotent and reports
// whether the registry was already initialized.
func (r *Registry) Initialize() (already bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return true
	}
	r.modules = make(map[string]*module)
	r.initialized = true
	return false
}

// key canonicalizes a module path so that different spellings of one file
// share one entry.
func key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Acquire takes a reference on path, opening the module on the first one.
// When opening fails the reference count is unchanged.
func (r *Registry) Acquire(path string) error {
	k, err := key(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if m, ok := r.modules[k]; ok {
		m.refs++
		return nil
	}

	lib, err := r.opener.Open(k)
	if err != nil {
		return &LoadError{Path: k, Err: err}
	}
	r.modules[k] = &module{lib: lib, refs: 1}
	return nil
}

// Release drops a reference on path and closes the module when it was the
// last one. Releasing a path without a reference panics with *LifetimeError.
// The returned error only reports a failure to close the module; the entry
// is removed either way.
func (r *Registry) Release(path string) error {
	k, err := key(path)
	if err != nil {
		panic(&LifetimeError{Op: "release", Path: path, Msg: err.Error()})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modules[k]
	if !ok {
		panic(&LifetimeError{Op: "release", Path: k, Msg: "module was never acquired"})
	}
	m.refs--
	if m.refs > 0 {
		return nil
	}
	delete(r.modules, k)
	if err := m.lib.Close(); err != nil {
		return fmt.Errorf("loader: failed to unload %q: %w", k, err)
	}
	return nil
}

// Use acquires path and returns the matching release. Calling release more
// than once has no further effect.
func (r *Registry) Use(path string) (release func() error, err error) {
	if err := r.Acquire(path); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() error {
		var err error
		once.Do(func() { err = r.Release(path) })
		return err
	}, nil
}

// ResolveSymbol looks up name in the module loaded from path.
func (r *Registry) ResolveSymbol(path, name string) (uintptr, error) {
	k, err := key(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrModuleNotLoaded, path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return 0, ErrNotInitialized
	}
	m, ok := r.modules[k]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrModuleNotLoaded, k)
	}
	sym, err := m.lib.Symbol(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %q: %v", ErrSymbolNotFound, name, k, err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("%w: %s in %q", ErrSymbolNotFound, name, k)
	}
	return sym, nil
}

// RefCount returns the number of outstanding references on path.
func (r *Registry) RefCount(path string) int {
	k, err := key(path)
	if err != nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.modules[k]; ok {
		return m.refs
	}
	return 0
}

// Loaded returns the paths of all loaded modules, sorted.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.modules))
	for k := range r.modules {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Teardown returns the registry to its uninitialized state. It panics with
// *LifetimeError while any module is still referenced. Tearing down an
// uninitialized registry is a no-op.
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return
	}
	if n := len(r.modules); n > 0 {
		paths := make([]string, 0, n)
		for k, m := range r.modules {
			paths = append(paths, fmt.Sprintf("%s (%d)", k, m.refs))
		}
		sort.Strings(paths)
		panic(&LifetimeError{Op: "teardown", Msg: fmt.Sprintf("%d modules still referenced: %v", n, paths)})
	}
	r.modules = nil
	r.initialized = false
}
