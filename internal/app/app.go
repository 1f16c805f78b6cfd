package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/specialistvlad/rendergraph/internal/compiler"
	"github.com/specialistvlad/rendergraph/internal/config"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/loader"
	"github.com/specialistvlad/rendergraph/internal/rendergraph"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	outMu  sync.Mutex
	logger *slog.Logger
	config *Config

	profile  *config.Profile
	registry *loader.Registry
	orch     *compiler.Orchestrator

	runner    compiler.Runner
	opener    loader.Opener
	graphOpts []rendergraph.Option
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and module
// registry. A profile that cannot be loaded or is invalid is a fatal startup
// error and panics.
func NewApp(outW io.Writer, appConfig *Config, loaders config.Loaders, opts ...Option) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = compiler.ExecRunner{}
	}

	profile := config.Default()
	if appConfig.ProfilePath != "" {
		p, err := loaders.Load(ctx, appConfig.ProfilePath)
		if err != nil {
			panic(fmt.Errorf("failed to load profile: %w", err))
		}
		profile = p
	}
	applyOverrides(profile, appConfig)
	if _, err := profile.Request("graph"); err != nil {
		panic(fmt.Errorf("invalid profile: %w", err))
	}
	a.profile = profile
	logger.Debug("Profile resolved.", "compiler", profile.Compile.Compiler, "standard", profile.Compile.Standard, "output_dir", profile.Compile.OutputDir)

	a.registry = loader.NewRegistry(a.opener)
	a.registry.Initialize()
	a.orch = compiler.New(a.runner)

	return a
}

// applyOverrides lays the command line values over the profile. Include
// directories and extra flags are appended rather than replaced.
func applyOverrides(p *config.Profile, c *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Compile.Compiler, c.Compiler)
	set(&p.Compile.Standard, c.Standard)
	set(&p.Compile.Optimization, c.Optimization)
	set(&p.Compile.OutputName, c.OutputName)
	set(&p.Compile.OutputDir, c.OutputDir)
	p.Compile.IncludeDirs = append(p.Compile.IncludeDirs, c.IncludeDirs...)
	if c.ExtraFlags != "" {
		p.Compile.ExtraFlagLine = strings.TrimSpace(p.Compile.ExtraFlagLine + " " + c.ExtraFlags)
	}
}

// Profile returns the effective profile. This is primarily for testing.
func (a *App) Profile() *config.Profile {
	return a.profile
}

// Registry returns the application's module registry. This is primarily for testing.
func (a *App) Registry() *loader.Registry {
	return a.registry
}

func (a *App) newGraph() *rendergraph.Graph {
	opts := []rendergraph.Option{
		rendergraph.WithOrchestrator(a.orch),
		rendergraph.WithPreprocessOptions(a.profile.PreprocessOptions()),
	}
	return rendergraph.New(a.registry, append(opts, a.graphOpts...)...)
}

// printf writes a line of user facing output. Workers share outW.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.outW, format, args...)
}
