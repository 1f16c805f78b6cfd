package compileargs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompiler(t *testing.T) {
	testCases := []struct {
		in      string
		want    Compiler
		wantErr bool
	}{
		{in: "g++", want: GPlusPlus},
		{in: "GCC", want: GPlusPlus},
		{in: "clang", want: Clang},
		{in: "clang++", want: Clang},
		{in: "msvc", want: MSVC},
		{in: " cl ", want: MSVC},
		{in: "tcc", want: CompilerUnknown, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCompiler(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseStandard(t *testing.T) {
	testCases := []struct {
		in      string
		want    Standard
		wantErr bool
	}{
		{in: "c++20", want: CPP20},
		{in: "20", want: CPP20},
		{in: "C++17", want: CPP17},
		{in: "cpp14", want: CPP14},
		{in: "23", want: CPP23},
		{in: "latest", want: StdDraft},
		{in: "draft", want: StdDraft},
		{in: "", want: StdDefault},
		{in: "c++98", want: StdInvalid, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStandard(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStandard_Resolve(t *testing.T) {
	assert.Equal(t, CPP20, StdDefault.Resolve())
	assert.Equal(t, CPP17, CPP17.Resolve())
	assert.Equal(t, StdInvalid, StdInvalid.Resolve())
}

func TestParseOptimization(t *testing.T) {
	testCases := []struct {
		in      string
		want    Optimization
		wantErr bool
	}{
		{in: "none", want: OptDisabled},
		{in: "", want: OptDisabled},
		{in: "O1", want: OptO1},
		{in: "-O2", want: OptO2},
		{in: "Ox", want: OptMax},
		{in: "max", want: OptMax},
		{in: "fast", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseOptimization(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArgs_WithExtraFlagLine(t *testing.T) {
	// --- Arrange ---
	base := Args{ExtraFlags: []string{"-Wall"}}

	// --- Act ---
	got, err := base.WithExtraFlagLine(`-Wextra -DNAME="hello world" '-I/opt/my sdk'`)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"-Wall", "-Wextra", "-DNAME=hello world", "-I/opt/my sdk"}, got.ExtraFlags)
	assert.Equal(t, []string{"-Wall"}, base.ExtraFlags, "receiver must not change")
}

func TestArgs_WithExtraFlagLine_Unbalanced(t *testing.T) {
	_, err := Args{}.WithExtraFlagLine(`-DNAME="oops`)
	assert.Error(t, err)
}

func TestArgs_CloneIsDeep(t *testing.T) {
	a := Args{IncludeDirs: []string{"a"}}
	b := a.WithIncludeDirs("b")
	b.IncludeDirs[0] = "changed"

	assert.Equal(t, []string{"a"}, a.IncludeDirs)
	assert.Equal(t, []string{"changed", "b"}, b.IncludeDirs)
}

func TestRequest_ArtifactPath(t *testing.T) {
	testCases := []struct {
		name string
		goos string
		out  string
		want string
	}{
		{name: "linux", goos: "linux", out: "graph", want: "graph.so"},
		{name: "darwin", goos: "darwin", out: "graph", want: "graph.dylib"},
		{name: "windows", goos: "windows", out: "graph", want: "graph.dll"},
		{name: "extension not doubled", goos: "linux", out: "graph.so", want: "graph.so"},
		{name: "foreign extension kept", goos: "windows", out: "graph.so", want: "graph.so.dll"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := Request{OutputName: tc.out, OutputDir: "build"}
			assert.Equal(t, filepath.Join("build", tc.want), r.ArtifactPath(tc.goos))
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, Request{OutputName: "g"}.Validate())
	assert.Error(t, Request{}.Validate())
	assert.Error(t, Request{OutputName: "a/b"}.Validate())
}
