package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
	"github.com/specialistvlad/rendergraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unit = "extern \"C\" void rg_next_frame(void*) {}\n"

func newTestOrchestrator(r *testutil.FakeRunner) *Orchestrator {
	return &Orchestrator{Runner: r, Backends: DefaultBackends(), GOOS: "linux"}
}

func TestCompile_Success(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.Context(t)
	outDir := t.TempDir()
	runner := &testutil.FakeRunner{CreateOutput: true}
	o := newTestOrchestrator(runner)
	req := compileargs.Request{
		Compiler:   compileargs.GPlusPlus,
		OutputName: "graph",
		OutputDir:  outDir,
		Args: compileargs.Args{
			IncludeDirs:  []string{"/sdk/include"},
			Defines:      []string{"RG_DEBUG=1"},
			IncludeFiles: []string{"pch.h"},
			LinkDirs:     []string{"/sdk/lib"},
			LinkLibs:     []string{"vulkan"},
			Optimization: compileargs.OptO2,
			ExtraFlags:   []string{"-Wall"},
		},
	}

	// --- Act ---
	res := o.Compile(ctx, unit, req)

	// --- Assert ---
	require.True(t, res.OK(), "unexpected failure: %v", res.Error())
	assert.NoError(t, res.Error())
	assert.Equal(t, filepath.Join(outDir, "graph.so"), res.ArtifactPath)
	assert.FileExists(t, res.ArtifactPath)

	call := runner.LastCall()
	assert.Equal(t, "g++", call.Name)
	assert.Equal(t, []string{"-shared", "-fPIC", "-fvisibility=hidden", "-std=c++20", "-O2"}, call.Args[:5])
	assert.Subset(t, call.Args, []string{"-I", "/sdk/include", "-DRG_DEBUG=1", "-include", "pch.h", "-Wall", "-L", "/sdk/lib", "-lvulkan"})
	assert.Equal(t, filepath.Join(call.Dir, unitFileName), call.Args[len(call.Args)-6])

	partials, err := filepath.Glob(filepath.Join(outDir, ".*partial*"))
	require.NoError(t, err)
	assert.Empty(t, partials, "temporary artifact must be renamed")
	assert.NoDirExists(t, call.Dir, "staging directory must be removed")
	assert.Contains(t, logs.String(), "Compiled module.")
}

func TestCompile_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		unit     string
		req      compileargs.Request
		runner   *testutil.FakeRunner
		wantCode Code
		wantErr  error
	}{
		{
			name:     "empty unit",
			unit:     "   \n",
			req:      compileargs.Request{Compiler: compileargs.GPlusPlus, OutputName: "g"},
			runner:   &testutil.FakeRunner{CreateOutput: true},
			wantCode: FailureSourceInvalid,
			wantErr:  ErrSourceInvalid,
		},
		{
			name:     "unknown compiler",
			unit:     unit,
			req:      compileargs.Request{Compiler: compileargs.CompilerUnknown, OutputName: "g"},
			runner:   &testutil.FakeRunner{CreateOutput: true},
			wantCode: FailureUnsupportedCompiler,
			wantErr:  ErrUnsupportedCompiler,
		},
		{
			name:     "invalid standard",
			unit:     unit,
			req:      compileargs.Request{Compiler: compileargs.Clang, OutputName: "g", Args: compileargs.Args{Standard: compileargs.StdInvalid}},
			runner:   &testutil.FakeRunner{CreateOutput: true},
			wantCode: FailureInvalidStandard,
			wantErr:  ErrInvalidStandard,
		},
		{
			name:     "c++23 on msvc",
			unit:     unit,
			req:      compileargs.Request{Compiler: compileargs.MSVC, OutputName: "g", Args: compileargs.Args{Standard: compileargs.CPP23}},
			runner:   &testutil.FakeRunner{CreateOutput: true},
			wantCode: FailureInvalidStandard,
			wantErr:  ErrInvalidStandard,
		},
		{
			name:     "nonzero exit",
			unit:     unit,
			req:      compileargs.Request{Compiler: compileargs.GPlusPlus, OutputName: "g"},
			runner:   &testutil.FakeRunner{Output: []byte("unit.cpp:1: error: boom"), Err: errors.New("exit status 1")},
			wantCode: FailureCommand,
			wantErr:  ErrCommandFailed,
		},
		{
			name:     "no artifact",
			unit:     unit,
			req:      compileargs.Request{Compiler: compileargs.GPlusPlus, OutputName: "g"},
			runner:   &testutil.FakeRunner{},
			wantCode: FailureCommand,
			wantErr:  ErrCommandFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			outDir := t.TempDir()
			tc.req.OutputDir = outDir
			o := newTestOrchestrator(tc.runner)

			// --- Act ---
			res := o.Compile(ctx, tc.unit, tc.req)

			// --- Assert ---
			assert.Equal(t, tc.wantCode, res.Code)
			err := res.Error()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.wantCode, cerr.Code)

			entries, readErr := os.ReadDir(outDir)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "no artifact or partial output may remain")
		})
	}
}

func TestCompile_CommandOutputIsSurfaced(t *testing.T) {
	ctx, _ := testutil.Context(t)
	runner := &testutil.FakeRunner{Output: []byte("unit.cpp:3:1: error: expected ';'"), Err: errors.New("exit status 1")}
	o := newTestOrchestrator(runner)

	res := o.Compile(ctx, unit, compileargs.Request{Compiler: compileargs.GPlusPlus, OutputName: "g", OutputDir: t.TempDir()})

	assert.Equal(t, "unit.cpp:3:1: error: expected ';'", res.Output)
	assert.Contains(t, res.Error().Error(), "expected ';'")
}

func TestCompile_FailureKeepsPreviousArtifact(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	outDir := t.TempDir()
	previous := filepath.Join(outDir, "g.so")
	require.NoError(t, os.WriteFile(previous, []byte("old module"), 0o644))
	o := newTestOrchestrator(&testutil.FakeRunner{Err: errors.New("exit status 1")})

	// --- Act ---
	res := o.Compile(ctx, unit, compileargs.Request{Compiler: compileargs.GPlusPlus, OutputName: "g", OutputDir: outDir})

	// --- Assert ---
	assert.False(t, res.OK())
	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "old module", string(data))
}

func TestCompile_MSVCKeepsLinkerOutputsInStaging(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	runner := &testutil.FakeRunner{CreateOutput: true}
	o := newTestOrchestrator(runner)
	o.GOOS = "windows"
	outDir := t.TempDir()

	// --- Act ---
	res := o.Compile(ctx, "int x;", compileargs.Request{Compiler: compileargs.MSVC, OutputName: "g", OutputDir: outDir})

	// --- Assert ---
	require.True(t, res.OK(), "%v", res.Err)
	call := runner.LastCall()
	assert.Contains(t, call.Args, "/IMPLIB:"+filepath.Join(call.Dir, "rendergraph_unit.lib"))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"g.dll"}, names)
}

func TestCompile_VersionGate(t *testing.T) {
	testCases := []struct {
		name     string
		banner   string
		std      compileargs.Standard
		wantCode Code
	}{
		{name: "new enough", banner: "g++ (GCC) 13.2.0", std: compileargs.CPP23, wantCode: Success},
		{name: "too old", banner: "g++ (GCC) 9.4.0", std: compileargs.CPP20, wantCode: FailureInvalidStandard},
		{name: "no constraint", banner: "g++ (GCC) 4.8.5", std: compileargs.CPP14, wantCode: Success},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			runner := &testutil.FakeRunner{CreateOutput: true, Versions: map[string]string{"g++": tc.banner}}
			o := newTestOrchestrator(runner)
			o.Versions = NewVersionReader(runner)

			res := o.Compile(ctx, unit, compileargs.Request{
				Compiler:   compileargs.GPlusPlus,
				OutputName: "g",
				OutputDir:  t.TempDir(),
				Args:       compileargs.Args{Standard: tc.std},
			})

			assert.Equal(t, tc.wantCode, res.Code, "err: %v", res.Err)
		})
	}
}

func TestCompile_UnreadableVersionIsNotFatal(t *testing.T) {
	ctx, logs := testutil.Context(t)
	runner := &testutil.FakeRunner{CreateOutput: true}
	o := newTestOrchestrator(runner)
	o.Versions = NewVersionReader(runner)

	res := o.Compile(ctx, unit, compileargs.Request{Compiler: compileargs.Clang, OutputName: "g", OutputDir: t.TempDir()})

	assert.True(t, res.OK())
	assert.Contains(t, logs.String(), "Could not determine compiler version")
}
