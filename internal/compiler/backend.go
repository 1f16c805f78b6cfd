package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
)

// Backend synthesizes the command line of one toolchain.
type Backend interface {
	// Name is the display name, e.g. "g++".
	Name() string
	// Executable is the program looked up on PATH.
	Executable() string
	// StandardFlag maps a resolved standard to the backend's switch.
	StandardFlag(std compileargs.Standard) (string, error)
	// VersionConstraint is the semver range the toolchain must satisfy for
	// std, or "" when any version will do.
	VersionConstraint(std compileargs.Standard) string
	// Command returns the arguments (without the executable) that build src
	// into the shared module out.
	Command(src, out string, args compileargs.Args) ([]string, error)
}

// DefaultBackends returns the three supported toolchains.
func DefaultBackends() map[compileargs.Compiler]Backend {
	return map[compileargs.Compiler]Backend{
		compileargs.GPlusPlus: &gnuBackend{name: "g++", exe: "g++", constraints: gppConstraints},
		compileargs.Clang:     &gnuBackend{name: "clang", exe: "clang++", constraints: clangConstraints},
		compileargs.MSVC:      &msvcBackend{},
	}
}

var (
	gppConstraints = map[compileargs.Standard]string{
		compileargs.CPP20:    ">= 10",
		compileargs.CPP23:    ">= 11",
		compileargs.StdDraft: ">= 14",
	}
	clangConstraints = map[compileargs.Standard]string{
		compileargs.CPP20:    ">= 10",
		compileargs.CPP23:    ">= 17",
		compileargs.StdDraft: ">= 17",
	}
)

// gnuBackend covers g++ and clang++, which share a flag family.
type gnuBackend struct {
	name        string
	exe         string
	constraints map[compileargs.Standard]string
}

func (b *gnuBackend) Name() string       { return b.name }
func (b *gnuBackend) Executable() string { return b.exe }

func (b *gnuBackend) StandardFlag(std compileargs.Standard) (string, error) {
	switch std {
	case compileargs.CPP14, compileargs.CPP17, compileargs.CPP20, compileargs.CPP23:
		return "-std=" + std.String(), nil
	case compileargs.StdDraft:
		return "-std=c++2c", nil
	default:
		return "", fmt.Errorf("%s does not support standard %s", b.name, std)
	}
}

func (b *gnuBackend) VersionConstraint(std compileargs.Standard) string {
	return b.constraints[std]
}

func (b *gnuBackend) Command(src, out string, args compileargs.Args) ([]string, error) {
	std, err := b.StandardFlag(args.Standard.Resolve())
	if err != nil {
		return nil, err
	}
	cmd := []string{"-shared", "-fPIC", "-fvisibility=hidden", std, gnuOpt(args.Optimization)}
	for _, d := range args.IncludeDirs {
		cmd = append(cmd, "-I", d)
	}
	for _, d := range args.Defines {
		cmd = append(cmd, "-D"+d)
	}
	for _, f := range args.IncludeFiles {
		cmd = append(cmd, "-include", f)
	}
	cmd = append(cmd, args.ExtraFlags...)
	cmd = append(cmd, src, "-o", out)
	for _, d := range args.LinkDirs {
		cmd = append(cmd, "-L", d)
	}
	for _, l := range args.LinkLibs {
		cmd = append(cmd, "-l"+l)
	}
	return cmd, nil
}

func gnuOpt(o compileargs.Optimization) string {
	switch o {
	case compileargs.OptO1:
		return "-O1"
	case compileargs.OptO2:
		return "-O2"
	case compileargs.OptMax:
		return "-O3"
	default:
		return "-O0"
	}
}

// msvcBackend drives cl.exe. It expects to run inside a developer prompt
// where cl is on PATH and INCLUDE/LIB are set.
type msvcBackend struct{}

func (msvcBackend) Name() string       { return "msvc" }
func (msvcBackend) Executable() string { return "cl" }

func (msvcBackend) StandardFlag(std compileargs.Standard) (string, error) {
	switch std {
	case compileargs.CPP14, compileargs.CPP17, compileargs.CPP20:
		return "/std:" + std.String(), nil
	case compileargs.StdDraft:
		return "/std:c++latest", nil
	case compileargs.CPP23:
		return "", fmt.Errorf("msvc has no stable switch for %s, use draft", std)
	default:
		return "", fmt.Errorf("msvc does not support standard %s", std)
	}
}

func (msvcBackend) VersionConstraint(compileargs.Standard) string { return "" }

func (b msvcBackend) Command(src, out string, args compileargs.Args) ([]string, error) {
	std, err := b.StandardFlag(args.Standard.Resolve())
	if err != nil {
		return nil, err
	}
	cmd := []string{"/nologo", "/LD", "/EHsc", std, msvcOpt(args.Optimization)}
	for _, d := range args.IncludeDirs {
		cmd = append(cmd, "/I", d)
	}
	for _, d := range args.Defines {
		cmd = append(cmd, "/D", d)
	}
	for _, f := range args.IncludeFiles {
		cmd = append(cmd, "/FI", f)
	}
	// Anything after /link goes to the linker, so extra flags come first.
	cmd = append(cmd, args.ExtraFlags...)
	// The import library and export file would otherwise land next to out.
	implib := strings.TrimSuffix(src, filepath.Ext(src)) + ".lib"
	cmd = append(cmd, src, "/Fe:"+out, "/link", "/IMPLIB:"+implib)
	for _, d := range args.LinkDirs {
		cmd = append(cmd, "/LIBPATH:"+d)
	}
	for _, l := range args.LinkLibs {
		cmd = append(cmd, l+".lib")
	}
	return cmd, nil
}

func msvcOpt(o compileargs.Optimization) string {
	switch o {
	case compileargs.OptO1:
		return "/O1"
	case compileargs.OptO2:
		return "/O2"
	case compileargs.OptMax:
		return "/Ox"
	default:
		return "/Od"
	}
}
