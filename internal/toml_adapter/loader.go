// Package toml_adapter loads build profiles written in TOML. It accepts the
// same keys as the HCL profile, grouped under [compile] and [graph]. String
// values may reference environment variables as ${NAME}.
package toml_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/specialistvlad/rendergraph/internal/config"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
)

type fileRoot struct {
	Compile *compileTable `toml:"compile"`
	Graph   *graphTable   `toml:"graph"`
}

type compileTable struct {
	Compiler      *string  `toml:"compiler"`
	Standard      string   `toml:"standard"`
	Optimization  string   `toml:"optimization"`
	IncludeDirs   []string `toml:"include_dirs"`
	IncludeFiles  []string `toml:"include_files"`
	Defines       []string `toml:"defines"`
	LinkDirs      []string `toml:"link_dirs"`
	LinkLibs      []string `toml:"link_libs"`
	ExtraFlags    []string `toml:"extra_flags"`
	ExtraFlagLine string   `toml:"extra_flag_line"`
	OutputDir     *string  `toml:"output_dir"`
	OutputName    string   `toml:"output_name"`
}

type graphTable struct {
	ContextType string   `toml:"context_type"`
	ContextName string   `toml:"context_name"`
	Prelude     []string `toml:"prelude"`
}

// Loader is the TOML-specific implementation of the config.Loader interface.
type Loader struct {
	// Getenv resolves ${NAME} references. Defaults to os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new TOML profile loader.
func NewLoader() *Loader {
	return &Loader{Getenv: os.Getenv}
}

var _ config.Loader = (*Loader)(nil)

// Load decodes the profile at path on top of config.Default. Unknown keys
// are an error.
func (l *Loader) Load(ctx context.Context, path string) (*config.Profile, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("TOML profile loader started.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML file %s: %w", path, err)
	}
	defer f.Close()

	var root fileRoot
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&root); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("failed to decode TOML file %s: %s", path, strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse TOML file %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	profile := translateProfile(&root, func(s string) string { return os.Expand(s, getenv) })
	profile.Path = path
	profile.ResolvePaths(filepath.Dir(path))

	logger.Debug("TOML profile loaded.", "path", path, "compiler", profile.Compile.Compiler)
	return profile, nil
}

func translateProfile(root *fileRoot, expand func(string) string) *config.Profile {
	expandAll := func(vs []string) []string {
		if vs == nil {
			return nil
		}
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = expand(v)
		}
		return out
	}

	p := config.Default()
	if c := root.Compile; c != nil {
		if c.Compiler != nil {
			p.Compile.Compiler = expand(*c.Compiler)
		}
		if c.OutputDir != nil {
			p.Compile.OutputDir = expand(*c.OutputDir)
		}
		p.Compile.Standard = expand(c.Standard)
		p.Compile.Optimization = expand(c.Optimization)
		p.Compile.IncludeDirs = expandAll(c.IncludeDirs)
		p.Compile.IncludeFiles = expandAll(c.IncludeFiles)
		p.Compile.Defines = expandAll(c.Defines)
		p.Compile.LinkDirs = expandAll(c.LinkDirs)
		p.Compile.LinkLibs = expandAll(c.LinkLibs)
		p.Compile.ExtraFlags = expandAll(c.ExtraFlags)
		p.Compile.ExtraFlagLine = expand(c.ExtraFlagLine)
		p.Compile.OutputName = expand(c.OutputName)
	}
	if g := root.Graph; g != nil {
		p.Graph.ContextType = g.ContextType
		p.Graph.ContextName = g.ContextName
		p.Graph.Prelude = expandAll(g.Prelude)
	}
	return p
}
