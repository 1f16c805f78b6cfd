package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/rendergraph/internal/config"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the env object. Defaults to os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL profile loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

var _ config.Loader = (*Loader)(nil)

// Load parses and decodes the profile at path on top of config.Default.
func (l *Loader) Load(ctx context.Context, path string) (*config.Profile, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL profile loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, newEvalContext(environ()), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	profile := translateProfile(&root)
	profile.Path = path
	profile.ResolvePaths(filepath.Dir(path))

	logger.Debug("HCL profile loaded.",
		"path", path,
		"compiler", profile.Compile.Compiler,
		"standard", profile.Compile.Standard,
		"include_dirs", len(profile.Compile.IncludeDirs),
	)
	return profile, nil
}

// translateProfile maps the decoded blocks onto a default profile. Fields
// that were not written keep their default.
func translateProfile(root *fileRoot) *config.Profile {
	p := config.Default()
	if c := root.Compile; c != nil {
		if c.Compiler != nil {
			p.Compile.Compiler = *c.Compiler
		}
		if c.OutputDir != nil {
			p.Compile.OutputDir = *c.OutputDir
		}
		p.Compile.Standard = c.Standard
		p.Compile.Optimization = c.Optimization
		p.Compile.IncludeDirs = c.IncludeDirs
		p.Compile.IncludeFiles = c.IncludeFiles
		p.Compile.Defines = c.Defines
		p.Compile.LinkDirs = c.LinkDirs
		p.Compile.LinkLibs = c.LinkLibs
		p.Compile.ExtraFlags = c.ExtraFlags
		p.Compile.ExtraFlagLine = c.ExtraFlagLine
		p.Compile.OutputName = c.OutputName
	}
	if g := root.Graph; g != nil {
		p.Graph.ContextType = g.ContextType
		p.Graph.ContextName = g.ContextName
		p.Graph.Prelude = g.Prelude
	}
	return p
}
