package app

import (
	"github.com/specialistvlad/rendergraph/internal/compiler"
	"github.com/specialistvlad/rendergraph/internal/loader"
	"github.com/specialistvlad/rendergraph/internal/rendergraph"
)

// Option customizes an App. The defaults run real toolchains and load real
// modules; tests replace them.
type Option func(*App)

// WithRunner replaces the os/exec compiler runner.
func WithRunner(r compiler.Runner) Option {
	return func(a *App) { a.runner = r }
}

// WithOpener replaces the native module opener.
func WithOpener(o loader.Opener) Option {
	return func(a *App) { a.opener = o }
}

// WithGraphOptions appends options to every graph the App creates.
func WithGraphOptions(opts ...rendergraph.Option) Option {
	return func(a *App) { a.graphOpts = append(a.graphOpts, opts...) }
}
