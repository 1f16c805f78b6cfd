package compileargs

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Args is the backend independent description of a compile. It is a value
// type: the With* methods return modified copies and never touch the
// receiver's slices.
type Args struct {
	IncludeDirs  []string
	IncludeFiles []string
	// Defines are NAME or NAME=VALUE preprocessor definitions.
	Defines      []string
	LinkDirs     []string
	LinkLibs     []string
	Optimization Optimization
	Standard     Standard
	// ExtraFlags are passed to the compiler verbatim, after every
	// synthesized flag.
	ExtraFlags []string
}

// Clone returns a deep copy.
func (a Args) Clone() Args {
	a.IncludeDirs = slices.Clone(a.IncludeDirs)
	a.IncludeFiles = slices.Clone(a.IncludeFiles)
	a.Defines = slices.Clone(a.Defines)
	a.LinkDirs = slices.Clone(a.LinkDirs)
	a.LinkLibs = slices.Clone(a.LinkLibs)
	a.ExtraFlags = slices.Clone(a.ExtraFlags)
	return a
}

// WithExtraFlagLine returns a copy with line split the way a POSIX shell
// would and appended to ExtraFlags.
func (a Args) WithExtraFlagLine(line string) (Args, error) {
	if strings.TrimSpace(line) == "" {
		return a.Clone(), nil
	}
	flags, err := shellwords.Parse(line)
	if err != nil {
		return Args{}, fmt.Errorf("failed to split extra flags %q: %w", line, err)
	}
	out := a.Clone()
	out.ExtraFlags = append(out.ExtraFlags, flags...)
	return out, nil
}

// WithIncludeDirs returns a copy with dirs appended.
func (a Args) WithIncludeDirs(dirs ...string) Args {
	out := a.Clone()
	out.IncludeDirs = append(out.IncludeDirs, dirs...)
	return out
}

// Request is everything the orchestrator needs besides the unit text.
type Request struct {
	Compiler   Compiler
	OutputName string
	OutputDir  string
	Args       Args
}

// Validate checks the fields that do not depend on the backend.
func (r Request) Validate() error {
	if r.OutputName == "" {
		return fmt.Errorf("output name is empty")
	}
	if strings.ContainsAny(r.OutputName, `/\`) {
		return fmt.Errorf("output name %q must not contain a path separator", r.OutputName)
	}
	return nil
}

// ArtifactPath is where the shared module ends up on goos. An output name
// that already carries the platform extension is not extended twice.
func (r Request) ArtifactPath(goos string) string {
	if goos == "" {
		goos = runtime.GOOS
	}
	ext := SharedLibraryExt(goos)
	name := r.OutputName
	if !strings.HasSuffix(name, ext) {
		name += ext
	}
	return filepath.Join(r.OutputDir, name)
}

// SharedLibraryExt is the shared module extension for goos.
func SharedLibraryExt(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}
