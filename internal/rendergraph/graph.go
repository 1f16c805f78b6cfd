package rendergraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
	"github.com/specialistvlad/rendergraph/internal/compiler"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/loader"
	"github.com/specialistvlad/rendergraph/internal/manifest"
	"github.com/specialistvlad/rendergraph/internal/parser"
	"github.com/specialistvlad/rendergraph/internal/pass"
	"github.com/specialistvlad/rendergraph/internal/preprocess"
)

// Option configures a Graph.
type Option func(*Graph)

// WithOrchestrator replaces the default os/exec based orchestrator.
func WithOrchestrator(o *compiler.Orchestrator) Option {
	return func(g *Graph) { g.orch = o }
}

// WithPreprocessOptions sets the code generation options. SourcePath is
// always taken from the loaded file.
func WithPreprocessOptions(o preprocess.Options) Option {
	return func(g *Graph) { g.ppOpts = o }
}

// WithContextHandle sets the value passed as the context argument to the
// module's entry points.
func WithContextHandle(h uintptr) Option {
	return func(g *Graph) { g.ctxHandle = h }
}

// Invoker calls a resolved C entry point. loader.Call is the default.
type Invoker func(fn uintptr, args ...uintptr) uintptr

// WithInvoker replaces loader.Call, which lets tests run a graph against
// fake modules.
func WithInvoker(call Invoker) Option {
	return func(g *Graph) { g.call = call }
}

// WithManifest controls whether a pass manifest is written next to the
// artifact after every successful compile. It is on by default.
func WithManifest(enabled bool) Option {
	return func(g *Graph) { g.writeManifest = enabled }
}

type bindKey struct {
	pass  string
	param int
}

// Graph is one render graph source and the module compiled from it. A
// Graph must not be copied and is not safe for concurrent use.
type Graph struct {
	noCopy noCopy

	reg           *loader.Registry
	orch          *compiler.Orchestrator
	ppOpts        preprocess.Options
	ctxHandle     uintptr
	writeManifest bool
	call          Invoker

	state   State
	failure error
	closed  bool
	// logger is taken from the context of the last Load, for the calls that
	// take no context.
	logger *slog.Logger

	sourcePath string
	source     string
	passes     []*pass.Descriptor
	spans      []parser.Span
	unit       *preprocess.Unit
	artifact   string

	// loaded is the artifact path this graph holds a registry reference on.
	loaded      string
	entry       uintptr
	bake        uintptr
	bind        uintptr
	bakePending bool
	// bakeWaiting and skipped are the counts last reported by the module,
	// kept so a warning is logged only when they change.
	bakeWaiting int
	skipped     int
	frames      uint64
	bindings    map[bindKey]unsafe.Pointer
}

// New creates an empty graph that loads modules through reg. The registry
// is initialized if it was not already.
func New(reg *loader.Registry, opts ...Option) *Graph {
	reg.Initialize()
	g := &Graph{
		reg:           reg,
		writeManifest: true,
		logger:        slog.New(slog.DiscardHandler),
		bindings:      make(map[bindKey]unsafe.Pointer),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.orch == nil {
		g.orch = compiler.New(compiler.ExecRunner{})
	}
	if g.call == nil {
		g.call = loader.Call
	}
	return g
}

// State returns the forward state.
func (g *Graph) State() State { return g.state }

// Status returns the state and the last failure.
func (g *Graph) Status() Status { return Status{State: g.state, Failure: g.failure} }

// SourcePath is the path given to the last successful LoadFromFile.
func (g *Graph) SourcePath() string { return g.sourcePath }

// Source is the raw text of the loaded file.
func (g *Graph) Source() string { return g.source }

// Passes returns the parsed descriptors. They are dropped once the unit has
// been generated and compiled, after which Passes returns nil.
func (g *Graph) Passes() []*pass.Descriptor { return g.passes }

// Unit is the generated translation unit of the last successful compile.
func (g *Graph) Unit() *preprocess.Unit { return g.unit }

// ArtifactPath is the module produced by the last successful compile.
func (g *Graph) ArtifactPath() string { return g.artifact }

// Frames counts NextFrame calls that reached the module.
func (g *Graph) Frames() uint64 { return g.frames }

func (g *Graph) fail(err error) error {
	g.failure = err
	return err
}

func (g *Graph) advance(ctx context.Context, to State) {
	if g.state != to {
		ctxlog.FromContext(ctx).Info("Graph state changed.", "source", g.sourcePath, "from", g.state, "to", to)
	}
	g.state = to
	g.failure = nil
}

// LoadFromFile reads and parses path. On success the previous passes and
// generated unit are replaced and the state becomes Parsed; a module that is
// already loaded stays loaded until the next Load or Close. On failure
// nothing changes.
func (g *Graph) LoadFromFile(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)
	if g.closed {
		return ErrClosed
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return g.fail(&Error{Kind: KindInvalidSourceFile, Path: path, Err: err})
	}
	f, err := parser.ParseAll(string(data))
	if err != nil {
		return g.fail(&Error{Kind: KindInvalidSourceFile, Path: path, Err: err})
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	logger.Debug("Parsed graph source.", "path", path, "passes", len(f.Passes))
	g.sourcePath = path
	g.source = string(data)
	g.passes = f.Passes
	g.spans = f.Spans
	g.unit = nil
	g.advance(ctx, StateParsed)
	return nil
}

// Compile generates the translation unit, builds it and loads the result.
// It requires a parsed source whose file still exists. The source file's
// directory is added to the include path, so the graph can include headers
// next to it. A failure at any step leaves the state and any loaded module
// untouched.
func (g *Graph) Compile(ctx context.Context, req compileargs.Request) error {
	logger := ctxlog.FromContext(ctx)
	if g.closed {
		return ErrClosed
	}

	if g.state < StateParsed {
		return g.fail(&Error{Kind: KindCompile, Err: &compiler.Error{Code: compiler.FailureSourceInvalid, Err: ErrNotParsed}})
	}
	if _, err := os.Stat(g.sourcePath); err != nil {
		return g.fail(&Error{Kind: KindCompile, Path: g.sourcePath, Err: &compiler.Error{Code: compiler.FailureSourceInvalid, Err: err}})
	}

	unit := g.unit
	if unit == nil {
		opts := g.ppOpts
		opts.SourcePath = g.sourcePath
		u, err := preprocess.Generate(ctx, g.source, g.passes, g.spans, opts)
		if err != nil {
			return g.fail(&Error{Kind: KindPreprocess, Path: g.sourcePath, Err: err})
		}
		unit = u
	}

	req.Args = req.Args.WithIncludeDirs(filepath.Dir(g.sourcePath))
	res := g.orch.Compile(ctx, unit.Source, req)
	if !res.OK() {
		logger.Error("Compile failed.", "source", g.sourcePath, "code", res.Code, "error", res.Err)
		return g.fail(&Error{Kind: KindCompile, Path: g.sourcePath, Err: res.Error()})
	}

	if g.writeManifest {
		mpath := manifest.PathFor(res.ArtifactPath)
		if err := manifest.Write(mpath, manifest.FromUnit(g.sourcePath, unit)); err != nil {
			logger.Warn("Failed to write pass manifest.", "path", mpath, "error", err)
		}
	}

	g.unit = unit
	g.passes = nil
	g.spans = nil
	g.artifact = res.ArtifactPath
	g.advance(ctx, StateCompiled)

	return g.Load(ctx)
}

// Load acquires the compiled module and resolves its entry points. A module
// held from an earlier load is released first, so rebuilding the same
// artifact path picks up the new code. On failure no module is held and the
// state stays Compiled.
func (g *Graph) Load(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if g.closed {
		return ErrClosed
	}
	if g.state < StateCompiled {
		return g.fail(&Error{Kind: KindLoad, Err: ErrNotCompiled})
	}
	g.logger = logger

	if err := g.unload(ctx); err != nil {
		logger.Warn("Failed to unload previous module.", "error", err)
	}
	if g.state == StateReady {
		g.state = StateCompiled
	}

	if err := g.reg.Acquire(g.artifact); err != nil {
		return g.fail(&Error{Kind: KindLoad, Path: g.artifact, Err: err})
	}
	g.loaded = g.artifact

	entry, err := g.reg.ResolveSymbol(g.loaded, preprocess.EntrySymbol)
	if err != nil {
		return g.fail(g.abortLoad(ctx, err))
	}
	var bake uintptr
	if g.unit.HasBake() {
		if bake, err = g.reg.ResolveSymbol(g.loaded, preprocess.BakeSymbol); err != nil {
			return g.fail(g.abortLoad(ctx, err))
		}
	}
	bind, err := g.reg.ResolveSymbol(g.loaded, preprocess.BindSymbol)
	if err != nil {
		logger.Debug("Module has no binding entry point.", "artifact", g.loaded)
		bind = 0
	}

	g.entry, g.bake, g.bind = entry, bake, bind
	g.bakePending = true
	g.bakeWaiting, g.skipped = 0, 0
	g.rebind(ctx)
	g.advance(ctx, StateReady)
	return nil
}

func (g *Graph) abortLoad(ctx context.Context, cause error) error {
	if err := g.unload(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to unload module after a failed load.", "error", err)
	}
	return &Error{Kind: KindEntryPointNotFound, Path: g.artifact, Err: cause}
}

// unload drops the registry reference held by g, if any.
func (g *Graph) unload(ctx context.Context) error {
	if g.loaded == "" {
		return nil
	}
	path := g.loaded
	g.loaded = ""
	g.entry, g.bake, g.bind = 0, 0, 0
	g.bakePending = false
	ctxlog.FromContext(ctx).Debug("Releasing module.", "artifact", path)
	return g.reg.Release(path)
}

// rebind replays earlier Bind calls into a freshly loaded module. Bindings
// for passes that no longer exist are dropped.
func (g *Graph) rebind(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for k, ptr := range g.bindings {
		if err := g.callBind(k, ptr); err != nil {
			logger.Warn("Dropping binding after reload.", "pass", k.pass, "param", k.param, "error", err)
			delete(g.bindings, k)
		}
	}
}

// Bind points parameter param of passName at ptr. Parameters are numbered
// in read, write, read-write, input order. ptr must stay valid and must not
// move while the module may use it: use C memory or pin Go memory with
// runtime.Pinner. Bindings survive reloads.
func (g *Graph) Bind(passName string, param int, ptr unsafe.Pointer) error {
	if g.closed {
		return ErrClosed
	}
	if g.state != StateReady {
		return ErrNotReady
	}
	k := bindKey{pass: passName, param: param}
	if err := g.callBind(k, ptr); err != nil {
		return err
	}
	g.bindings[k] = ptr
	return nil
}

func (g *Graph) callBind(k bindKey, ptr unsafe.Pointer) error {
	if g.bind == 0 {
		return ErrBindingUnsupported
	}
	info, ok := g.unit.Lookup(k.pass)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPass, k.pass)
	}
	if k.param < 0 || k.param >= info.ParamCount() {
		return fmt.Errorf("%w: pass %s has %d parameters, got index %d", ErrBindRejected, k.pass, info.ParamCount(), k.param)
	}
	rc := int32(g.call(g.bind, uintptr(info.Index), uintptr(k.param), uintptr(ptr)))
	if rc != preprocess.BindOK {
		return fmt.Errorf("%w: pass %s param %d (code %d)", ErrBindRejected, k.pass, k.param, rc)
	}
	return nil
}

// Bake runs the bake-time work of every pass once per loaded module: FIXED
// passes and the fixed blocks of dynamic passes. A pass whose parameters are
// not all bound yet is left waiting and baked by a later Bake or NextFrame
// once Bind completes it. NextFrame calls Bake before every frame until
// nothing is waiting; calling it explicitly only moves that work earlier.
func (g *Graph) Bake() error {
	if g.closed {
		return ErrClosed
	}
	if g.state != StateReady {
		return ErrNotReady
	}
	if !g.bakePending || g.bake == 0 {
		g.bakePending = false
		return nil
	}

	waiting := int(uint32(g.call(g.bake, g.ctxHandle)))
	g.bakePending = waiting > 0
	if waiting > 0 && waiting != g.bakeWaiting {
		g.logger.Warn("Passes are waiting for parameter bindings before they can bake.",
			"source", g.sourcePath,
			"waiting", waiting,
			"passes", g.unbound(func(p preprocess.PassInfo) bool { return p.BakeSymbol != "" }),
		)
	}
	if waiting == 0 && g.bakeWaiting > 0 {
		g.logger.Debug("Every pass has baked.", "source", g.sourcePath)
	}
	g.bakeWaiting = waiting
	return nil
}

// NextFrame runs the module's per-frame entry point. The only errors are
// ErrClosed and ErrNotReady; what the pass bodies do is up to them. Passes
// with unbound parameters are skipped, which is logged as a warning each
// time the number of skipped passes changes.
func (g *Graph) NextFrame() error {
	if err := g.Bake(); err != nil {
		return err
	}
	skipped := int(uint32(g.call(g.entry, g.ctxHandle)))
	if skipped > 0 && skipped != g.skipped {
		g.logger.Warn("Skipped passes with unbound parameters.",
			"source", g.sourcePath,
			"skipped", skipped,
			"passes", g.unbound(func(p preprocess.PassInfo) bool { return !p.Fixed }),
		)
	}
	g.skipped = skipped
	g.frames++
	return nil
}

// unbound names the passes accepted by filter that still have a parameter
// without a binding.
func (g *Graph) unbound(filter func(preprocess.PassInfo) bool) []string {
	bound := make(map[string]int, len(g.bindings))
	for k := range g.bindings {
		bound[k.pass]++
	}
	var names []string
	for _, p := range g.unit.Passes {
		if filter(p) && bound[p.Name] < p.ParamCount() {
			names = append(names, p.Name)
		}
	}
	return names
}

// Close releases the module reference held by the graph, whatever state it
// is in, and drops every buffer. It is safe to call more than once.
func (g *Graph) Close() error {
	if g.closed {
		return nil
	}
	var err error
	if g.loaded != "" {
		path := g.loaded
		g.loaded = ""
		err = g.reg.Release(path)
	}
	g.closed = true
	g.entry, g.bake, g.bind = 0, 0, 0
	g.source, g.passes, g.spans, g.unit = "", nil, nil, nil
	g.bindings = nil
	g.state = StateEmpty
	if err != nil {
		return fmt.Errorf("rendergraph: close: %w", err)
	}
	return nil
}
