package compiler

import (
	"testing"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackends_StandardFlag(t *testing.T) {
	backends := DefaultBackends()

	testCases := []struct {
		compiler compileargs.Compiler
		std      compileargs.Standard
		want     string
		wantErr  bool
	}{
		{compiler: compileargs.GPlusPlus, std: compileargs.CPP14, want: "-std=c++14"},
		{compiler: compileargs.GPlusPlus, std: compileargs.CPP23, want: "-std=c++23"},
		{compiler: compileargs.GPlusPlus, std: compileargs.StdDraft, want: "-std=c++2c"},
		{compiler: compileargs.Clang, std: compileargs.CPP17, want: "-std=c++17"},
		{compiler: compileargs.Clang, std: compileargs.StdInvalid, wantErr: true},
		{compiler: compileargs.MSVC, std: compileargs.CPP20, want: "/std:c++20"},
		{compiler: compileargs.MSVC, std: compileargs.StdDraft, want: "/std:c++latest"},
		{compiler: compileargs.MSVC, std: compileargs.CPP23, wantErr: true},
		{compiler: compileargs.MSVC, std: compileargs.StdInvalid, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.compiler.String()+"/"+tc.std.String(), func(t *testing.T) {
			got, err := backends[tc.compiler].StandardFlag(tc.std)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMSVCBackend_Command(t *testing.T) {
	b := DefaultBackends()[compileargs.MSVC]

	got, err := b.Command(`C:\tmp\unit.cpp`, `C:\out\g.dll`, compileargs.Args{
		IncludeDirs:  []string{`C:\sdk\include`},
		Defines:      []string{"NDEBUG"},
		IncludeFiles: []string{"pch.h"},
		LinkDirs:     []string{`C:\sdk\lib`},
		LinkLibs:     []string{"vulkan-1"},
		Optimization: compileargs.OptMax,
		ExtraFlags:   []string{"/W4"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"/nologo", "/LD", "/EHsc", "/std:c++20", "/Ox",
		"/I", `C:\sdk\include`,
		"/D", "NDEBUG",
		"/FI", "pch.h",
		"/W4",
		`C:\tmp\unit.cpp`, `/Fe:C:\out\g.dll`, "/link", `/IMPLIB:C:\tmp\unit.lib`,
		`/LIBPATH:C:\sdk\lib`, "vulkan-1.lib",
	}, got)
}

func TestClangBackend_Command(t *testing.T) {
	b := DefaultBackends()[compileargs.Clang]
	assert.Equal(t, "clang++", b.Executable())

	got, err := b.Command("unit.cpp", "g.so", compileargs.Args{Standard: compileargs.CPP17})

	require.NoError(t, err)
	assert.Equal(t, []string{"-shared", "-fPIC", "-fvisibility=hidden", "-std=c++17", "-O0", "unit.cpp", "-o", "g.so"}, got)
}

func TestParseVersion(t *testing.T) {
	testCases := []struct {
		banner  string
		want    string
		wantErr bool
	}{
		{banner: "g++ (Ubuntu 13.2.0-23ubuntu4) 13.2.0\nCopyright (C) 2023", want: "13.2.0"},
		{banner: "Ubuntu clang version 17.0.6 (9ubuntu1)", want: "17.0.6"},
		{banner: "Apple clang version 15.0.0 (clang-1500.3.9.4)", want: "15.0.0"},
		{banner: "cc 12.1", want: "12.1.0"},
		{banner: "no digits here", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.banner, func(t *testing.T) {
			v, err := ParseVersion(tc.banner)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.String())
		})
	}
}
