//go:build darwin || freebsd || linux || windows

package loader

import "github.com/ebitengine/purego"

// NativeSupported reports whether NativeOpener can load modules.
const NativeSupported = true

// Call invokes the C function at fn with integer or pointer arguments and
// returns its integer result. fn must come from ResolveSymbol on a module
// that stays acquired for the duration of the call.
func Call(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}
