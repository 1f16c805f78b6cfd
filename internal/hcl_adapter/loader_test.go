package hcl_adapter

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/rendergraph/internal/config"
	"github.com/specialistvlad/rendergraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	testCases := []struct {
		name    string
		hcl     string
		check   func(t *testing.T, dir string, p *config.Profile)
		wantErr string
	}{
		{
			name: "full profile",
			hcl: `
compile {
  compiler        = "clang++"
  standard        = "c++23"
  optimization    = lower("O2")
  include_dirs    = ["${env.SDK}/include", "include"]
  include_files   = ["pch.h"]
  defines         = [format("VERSION=%d", 3), "NDEBUG"]
  link_dirs       = ["${env.SDK}/lib"]
  link_libs       = ["m"]
  extra_flags     = ["-Wall"]
  extra_flag_line = "-Wextra -Werror"
  output_dir      = "out"
  output_name     = "scene"
}

graph {
  context_type = "Frame*"
  context_name = "frame"
  prelude      = ["engine.h", "<vector>"]
}
`,
			check: func(t *testing.T, dir string, p *config.Profile) {
				want := config.Compile{
					Compiler:      "clang++",
					Standard:      "c++23",
					Optimization:  "o2",
					IncludeDirs:   []string{"/opt/sdk/include", filepath.Join(dir, "include")},
					IncludeFiles:  []string{filepath.Join(dir, "pch.h")},
					Defines:       []string{"VERSION=3", "NDEBUG"},
					LinkDirs:      []string{"/opt/sdk/lib"},
					LinkLibs:      []string{"m"},
					ExtraFlags:    []string{"-Wall"},
					ExtraFlagLine: "-Wextra -Werror",
					OutputDir:     filepath.Join(dir, "out"),
					OutputName:    "scene",
				}
				assert.Equal(t, want, p.Compile)
				assert.Equal(t, config.Graph{
					ContextType: "Frame*",
					ContextName: "frame",
					Prelude:     []string{"engine.h", "<vector>"},
				}, p.Graph)
			},
		},
		{
			name: "empty file keeps defaults",
			hcl:  "",
			check: func(t *testing.T, dir string, p *config.Profile) {
				assert.Equal(t, "g++", p.Compile.Compiler)
				assert.Equal(t, filepath.Join(dir, "build"), p.Compile.OutputDir)
				assert.Empty(t, p.Graph.ContextType)
			},
		},
		{
			name: "partial compile block keeps default compiler",
			hcl:  `compile { standard = "c++17" }`,
			check: func(t *testing.T, dir string, p *config.Profile) {
				assert.Equal(t, "g++", p.Compile.Compiler)
				assert.Equal(t, "c++17", p.Compile.Standard)
			},
		},
		{
			name:    "syntax error",
			hcl:     "compile {\n  compiler = \n",
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown attribute",
			hcl:     `compile { linker = "lld" }`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "unknown block",
			hcl:     `runner "x" {}`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "undefined environment variable",
			hcl:     `compile { include_dirs = [env.NOT_SET] }`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "duplicate compile block",
			hcl:     "compile {}\ncompile {}\n",
			wantErr: "failed to decode HCL file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			dir := testutil.WriteFiles(t, map[string]string{"profile.hcl": tc.hcl})
			path := filepath.Join(dir, "profile.hcl")
			loader := &Loader{Environ: func() []string { return []string{"SDK=/opt/sdk", "=C:=weird", "NOEQUALS"} }}

			// --- Act ---
			p, err := loader.Load(ctx, path)

			// --- Assert ---
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, p.Path)
			tc.check(t, dir, p)
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	ctx, _ := testutil.Context(t)

	_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "missing.hcl"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL file")
}
