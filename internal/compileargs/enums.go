// Package compileargs holds the value types that describe one native
// compile request.
package compileargs

import (
	"fmt"
	"strings"
)

// Compiler is a supported native toolchain.
type Compiler int

const (
	CompilerUnknown Compiler = iota
	MSVC
	GPlusPlus
	Clang
)

// String implements fmt.Stringer.
func (c Compiler) String() string {
	switch c {
	case MSVC:
		return "msvc"
	case GPlusPlus:
		return "g++"
	case Clang:
		return "clang"
	default:
		return fmt.Sprintf("Compiler(%d)", int(c))
	}
}

// ParseCompiler accepts the toolchain names users type on the command line.
func ParseCompiler(s string) (Compiler, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "msvc", "cl", "cl.exe":
		return MSVC, nil
	case "g++", "gcc", "gnu":
		return GPlusPlus, nil
	case "clang", "clang++":
		return Clang, nil
	default:
		return CompilerUnknown, fmt.Errorf("unknown compiler %q (want g++, clang or msvc)", s)
	}
}

// Optimization is the optimizer level.
type Optimization int

const (
	OptDisabled Optimization = iota
	OptO1
	OptO2
	OptMax
)

// String implements fmt.Stringer.
func (o Optimization) String() string {
	switch o {
	case OptDisabled:
		return "disabled"
	case OptO1:
		return "O1"
	case OptO2:
		return "O2"
	case OptMax:
		return "max"
	default:
		return fmt.Sprintf("Optimization(%d)", int(o))
	}
}

// ParseOptimization accepts "none", "0", "O1", "O2", "max", "Ox" and "O3".
func ParseOptimization(s string) (Optimization, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "-")) {
	case "", "none", "disabled", "off", "0", "o0", "od":
		return OptDisabled, nil
	case "1", "o1":
		return OptO1, nil
	case "2", "o2":
		return OptO2, nil
	case "max", "3", "o3", "ox":
		return OptMax, nil
	default:
		return OptDisabled, fmt.Errorf("unknown optimization level %q", s)
	}
}

// Standard is the C++ language standard level.
type Standard int

const (
	// StdDefault is the zero value and resolves to DefaultStandard.
	StdDefault Standard = iota
	CPP14
	CPP17
	CPP20
	CPP23
	// StdDraft is the newest in-progress standard the toolchain knows.
	StdDraft
	// StdInvalid is rejected by every backend.
	StdInvalid
)

// DefaultStandard is used when no standard is requested.
const DefaultStandard = CPP20

// Resolve maps StdDefault to DefaultStandard.
func (s Standard) Resolve() Standard {
	if s == StdDefault {
		return DefaultStandard
	}
	return s
}

// String implements fmt.Stringer.
func (s Standard) String() string {
	switch s {
	case CPP14:
		return "c++14"
	case CPP17:
		return "c++17"
	case CPP20:
		return "c++20"
	case CPP23:
		return "c++23"
	case StdDraft:
		return "draft"
	case StdDefault:
		return "default"
	default:
		return "invalid"
	}
}

// ParseStandard accepts "c++20", "cpp20", "20", "draft" and "latest".
// Unknown input yields StdInvalid together with an error, so callers that
// want the orchestrator to report it can keep going.
func ParseStandard(s string) (Standard, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "c++")
	v = strings.TrimPrefix(v, "cpp")
	switch v {
	case "", "default":
		return StdDefault, nil
	case "14":
		return CPP14, nil
	case "17":
		return CPP17, nil
	case "20":
		return CPP20, nil
	case "23":
		return CPP23, nil
	case "draft", "latest", "2c", "26":
		return StdDraft, nil
	default:
		return StdInvalid, fmt.Errorf("unknown C++ standard %q", s)
	}
}
