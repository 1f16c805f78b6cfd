//go:build windows

package loader

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// NativeOpener opens modules with LoadLibrary.
func NativeOpener() Opener {
	return OpenerFunc(func(path string) (Library, error) {
		h, err := windows.LoadLibrary(path)
		if err != nil {
			return nil, fmt.Errorf("LoadLibrary(%q) failed: %w", path, err)
		}
		return &winLibrary{path: path, handle: h}, nil
	})
}

type winLibrary struct {
	path   string
	handle windows.Handle
}

func (l *winLibrary) Symbol(name string) (uintptr, error) {
	proc, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("GetProcAddress(%q) failed: %w", name, err)
	}
	return proc, nil
}

func (l *winLibrary) Close() error {
	if err := windows.FreeLibrary(l.handle); err != nil {
		return fmt.Errorf("FreeLibrary(%q) failed: %w", l.path, err)
	}
	return nil
}
