package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
	"github.com/specialistvlad/rendergraph/internal/preprocess"
)

// Profile is the unified, format-agnostic representation of a build profile.
type Profile struct {
	// Path is the file the profile was loaded from, empty for Default.
	Path    string
	Compile Compile
	Graph   Graph
}

// Compile holds the compile settings. Enum fields keep the user's spelling
// until Request parses them, so a loader never has to know the enums.
type Compile struct {
	Compiler      string
	Standard      string
	Optimization  string
	IncludeDirs   []string
	IncludeFiles  []string
	Defines       []string
	LinkDirs      []string
	LinkLibs      []string
	ExtraFlags    []string
	ExtraFlagLine string
	OutputDir     string
	OutputName    string
}

// Graph holds the code generation options.
type Graph struct {
	ContextType string
	ContextName string
	Prelude     []string
}

// Default returns the profile used when none is given.
func Default() *Profile {
	return &Profile{
		Compile: Compile{
			Compiler:  "g++",
			OutputDir: "build",
		},
	}
}

// ResolvePaths makes every relative directory and file in the profile
// relative to base. Loaders call it with the directory of the profile file.
func (p *Profile) ResolvePaths(base string) {
	resolve := func(v string) string {
		if v == "" || filepath.IsAbs(v) {
			return v
		}
		return filepath.Join(base, v)
	}
	resolveAll := func(vs []string) {
		for i, v := range vs {
			vs[i] = resolve(v)
		}
	}
	resolveAll(p.Compile.IncludeDirs)
	resolveAll(p.Compile.IncludeFiles)
	resolveAll(p.Compile.LinkDirs)
	p.Compile.OutputDir = resolve(p.Compile.OutputDir)
}

// Args converts the compile settings into compileargs.Args.
func (p *Profile) Args() (compileargs.Args, error) {
	std, err := compileargs.ParseStandard(p.Compile.Standard)
	if err != nil {
		return compileargs.Args{}, fmt.Errorf("profile %s: %w", p.name(), err)
	}
	opt, err := compileargs.ParseOptimization(p.Compile.Optimization)
	if err != nil {
		return compileargs.Args{}, fmt.Errorf("profile %s: %w", p.name(), err)
	}
	args := compileargs.Args{
		IncludeDirs:  slices.Clone(p.Compile.IncludeDirs),
		IncludeFiles: slices.Clone(p.Compile.IncludeFiles),
		Defines:      slices.Clone(p.Compile.Defines),
		LinkDirs:     slices.Clone(p.Compile.LinkDirs),
		LinkLibs:     slices.Clone(p.Compile.LinkLibs),
		Optimization: opt,
		Standard:     std,
		ExtraFlags:   slices.Clone(p.Compile.ExtraFlags),
	}
	args, err = args.WithExtraFlagLine(p.Compile.ExtraFlagLine)
	if err != nil {
		return compileargs.Args{}, fmt.Errorf("profile %s: %w", p.name(), err)
	}
	return args, nil
}

// Request builds the compile request for a graph. fallbackName is used when
// the profile does not set an output name, which is the usual case in
// directory mode where every graph gets its own module.
func (p *Profile) Request(fallbackName string) (compileargs.Request, error) {
	cc, err := compileargs.ParseCompiler(p.Compile.Compiler)
	if err != nil {
		return compileargs.Request{}, fmt.Errorf("profile %s: %w", p.name(), err)
	}
	args, err := p.Args()
	if err != nil {
		return compileargs.Request{}, err
	}
	name := p.Compile.OutputName
	if name == "" {
		name = fallbackName
	}
	return compileargs.Request{
		Compiler:   cc,
		OutputName: name,
		OutputDir:  p.Compile.OutputDir,
		Args:       args,
	}, nil
}

// PreprocessOptions returns the code generation options. SourcePath is left
// for the caller.
func (p *Profile) PreprocessOptions() preprocess.Options {
	return preprocess.Options{
		ContextType: p.Graph.ContextType,
		ContextName: p.Graph.ContextName,
		Prelude:     slices.Clone(p.Graph.Prelude),
	}
}

func (p *Profile) name() string {
	if p.Path == "" {
		return "<default>"
	}
	return p.Path
}
