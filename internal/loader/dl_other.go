//go:build !(darwin || freebsd || linux || windows)

package loader

import (
	"fmt"
	"runtime"
)

// NativeOpener reports that modules cannot be loaded on this platform.
func NativeOpener() Opener {
	return OpenerFunc(func(path string) (Library, error) {
		return nil, fmt.Errorf("loading shared modules is not supported on %s", runtime.GOOS)
	})
}

// NativeSupported reports whether NativeOpener can load modules.
const NativeSupported = false

// Call is unavailable without a native opener.
func Call(fn uintptr, args ...uintptr) uintptr {
	panic("loader: native calls are not supported on " + runtime.GOOS)
}
