//go:build darwin || freebsd || linux

package loader

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// NativeOpener opens modules with dlopen through purego, so no cgo is needed.
func NativeOpener() Opener {
	return OpenerFunc(func(path string) (Library, error) {
		h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err != nil {
			return nil, fmt.Errorf("dlopen(%q) failed: %w", path, err)
		}
		return &dlLibrary{path: path, handle: h}, nil
	})
}

type dlLibrary struct {
	path   string
	handle uintptr
}

func (l *dlLibrary) Symbol(name string) (uintptr, error) {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("dlsym(%q) failed: %w", name, err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("dlsym(%q) returned NULL", name)
	}
	return sym, nil
}

func (l *dlLibrary) Close() error {
	if err := purego.Dlclose(l.handle); err != nil {
		return fmt.Errorf("dlclose(%q) failed: %w", l.path, err)
	}
	return nil
}
