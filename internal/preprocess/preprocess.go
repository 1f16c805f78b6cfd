package preprocess

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/argblock"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/parser"
	"github.com/specialistvlad/rendergraph/internal/pass"
)

// Well-known exported symbols.
const (
	EntrySymbol = "rg_next_frame"
	BakeSymbol  = "rg_bake"
	BindSymbol  = "rg_bind_param"
	CountSymbol = "rg_pass_count"

	mainPrefix  = "rg_pass_main_"
	bakePrefix  = "rg_pass_bake_"
	bindPrefix  = "rg_bind_"
	bakedPrefix = "rg_baked_"
)

// Return codes of rg_bind_param.
const (
	BindOK           = 0
	BindUnknownPass  = -1
	BindBadParameter = -2
)

// MainSymbol is the generated function name of a dynamic pass.
func MainSymbol(name string) string { return mainPrefix + name }

// BakeSymbolFor is the generated bake-time function name of a pass: the
// whole body of a FIXED pass, or the fixed blocks of a dynamic one.
func BakeSymbolFor(name string) string { return bakePrefix + name }

// Options controls the shape of the generated unit.
type Options struct {
	// ContextType is the C++ type of the first parameter of every pass
	// function. It must be a pointer type. Defaults to "void*".
	ContextType string
	// ContextName is the identifier bodies use for the context. Defaults to "ctx".
	ContextName string
	// Prelude lists headers included before the copied source, e.g. "graph.h"
	// or "<vector>". Quotes are added when missing.
	Prelude []string
	// SourcePath is written into #line directives. Defaults to "graph.rg".
	SourcePath string
}

func (o Options) withDefaults() Options {
	if o.ContextType == "" {
		o.ContextType = "void*"
	}
	if o.ContextName == "" {
		o.ContextName = "ctx"
	}
	if o.SourcePath == "" {
		o.SourcePath = "graph.rg"
	}
	return o
}

// PassInfo is what survives of a descriptor after generation.
type PassInfo struct {
	Index int
	Name  string
	Fixed bool
	// Symbol is the per-frame function, or the bake function of a FIXED pass.
	Symbol string
	// BakeSymbol is set when the pass does work at bake time.
	BakeSymbol  string
	FixedBlocks int

	Read      argblock.Block
	Write     argblock.Block
	ReadWrite argblock.Block
	Input     argblock.Block
}

// ParamCount is the number of slots in the pass's binding table.
func (p PassInfo) ParamCount() int {
	return p.Read.Count() + p.Write.Count() + p.ReadWrite.Count() + p.Input.Count()
}

// Unit is a generated translation unit. The module's rg_next_frame returns
// how many dynamic passes it skipped for missing bindings, and rg_bake how
// many passes are still waiting to bake for the same reason. Each pass bakes
// at most once per loaded module.
type Unit struct {
	Source      string
	MainSymbols []string
	BakeSymbols []string
	Passes      []PassInfo
}

// Lookup finds a pass by name.
func (u *Unit) Lookup(name string) (PassInfo, bool) {
	for _, p := range u.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return PassInfo{}, false
}

// HasBake reports whether any pass does work at bake time.
func (u *Unit) HasBake() bool { return len(u.BakeSymbols) > 0 }

// genPass is a descriptor with its declarations split.
type genPass struct {
	info   PassInfo
	decls  []argblock.Decl
	body   string
	line   int
	blocks []pass.FixedBlock
}

// Generate builds the translation unit for src. passes and spans must come
// from the same parser.ParseAll call over src.
func Generate(ctx context.Context, src string, passes []*pass.Descriptor, spans []parser.Span, opts Options) (*Unit, error) {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	if !strings.HasSuffix(strings.TrimSpace(opts.ContextType), "*") {
		return nil, &PreprocessError{Msg: fmt.Sprintf("context type %q is not a pointer type", opts.ContextType)}
	}
	if err := pass.ValidateName(opts.ContextName); err != nil {
		return nil, &PreprocessError{Msg: "context name: " + err.Error()}
	}
	if len(spans) != len(passes) {
		return nil, &PreprocessError{Msg: fmt.Sprintf("%d passes but %d spans", len(passes), len(spans))}
	}

	gens, err := prepare(passes, spans, len(src), opts)
	if err != nil {
		return nil, err
	}

	e := newEmitter(opts.SourcePath)
	e.header(opts)
	e.source(src, spans)
	for _, g := range gens {
		e.passFunctions(g, opts)
	}
	e.bindTables(gens)
	e.exports(gens, opts)

	u := &Unit{Source: e.String()}
	for _, g := range gens {
		u.Passes = append(u.Passes, g.info)
		if !g.info.Fixed {
			u.MainSymbols = append(u.MainSymbols, g.info.Symbol)
		}
		if g.info.BakeSymbol != "" {
			u.BakeSymbols = append(u.BakeSymbols, g.info.BakeSymbol)
		}
	}

	logger.Debug("Generated translation unit.",
		"passes", len(u.Passes),
		"main", len(u.MainSymbols),
		"bake", len(u.BakeSymbols),
		"bytes", len(u.Source),
	)
	return u, nil
}

func prepare(passes []*pass.Descriptor, spans []parser.Span, srcLen int, opts Options) ([]genPass, error) {
	seen := make(map[string]bool, len(passes))
	gens := make([]genPass, 0, len(passes))
	prevEnd := 0

	for i, d := range passes {
		if d == nil {
			return nil, &PreprocessError{Msg: fmt.Sprintf("descriptor %d is nil", i)}
		}
		if err := pass.ValidateName(d.Name); err != nil {
			return nil, &PreprocessError{Pass: d.Name, Msg: err.Error()}
		}
		if seen[d.Name] {
			return nil, &PreprocessError{Pass: d.Name, Msg: "duplicate pass name", Err: pass.ErrDuplicateName}
		}
		seen[d.Name] = true

		sp := spans[i]
		if sp.Start < prevEnd || sp.End < sp.Start || sp.End > srcLen {
			return nil, &PreprocessError{Pass: d.Name, Msg: fmt.Sprintf("span [%d, %d) is out of order or out of range", sp.Start, sp.End)}
		}
		prevEnd = sp.End

		decls, err := d.Params().Decls()
		if err != nil {
			return nil, &PreprocessError{Pass: d.Name, Msg: "bad parameter declaration", Err: err}
		}
		names := map[string]bool{opts.ContextName: true}
		for _, decl := range decls {
			if names[decl.Name] {
				return nil, &PreprocessError{Pass: d.Name, Msg: fmt.Sprintf("parameter %q is declared twice or shadows the context", decl.Name)}
			}
			names[decl.Name] = true
		}

		for _, fb := range d.FixedBlocks {
			if fb.Start < 0 || fb.StmtStart < fb.Start || fb.StmtStart+len(fb.Stmt) > fb.End || fb.End > len(d.Body) {
				return nil, &PreprocessError{Pass: d.Name, Msg: fmt.Sprintf("fixed block [%d, %d) is out of range", fb.Start, fb.End)}
			}
		}

		symbol := MainSymbol(d.Name)
		var bake string
		if d.HasBake() {
			bake = BakeSymbolFor(d.Name)
		}
		if d.Fixed {
			symbol = bake
		}
		gens = append(gens, genPass{
			info: PassInfo{
				Index:       i,
				Name:        d.Name,
				Fixed:       d.Fixed,
				Symbol:      symbol,
				BakeSymbol:  bake,
				FixedBlocks: len(d.FixedBlocks),
				Read:        d.Read,
				Write:       d.Write,
				ReadWrite:   d.ReadWrite,
				Input:       d.Input,
			},
			decls:  decls,
			body:   d.Body,
			line:   d.BodyLine,
			blocks: d.FixedBlocks,
		})
	}
	return gens, nil
}

// forward is the expression that turns a binding slot into an argument.
func forward(d argblock.Decl, slot string) string {
	switch d.Kind {
	case argblock.KindPointer:
		return "(" + d.Type + ")" + slot
	default:
		return "*(" + d.BaseType() + "*)" + slot
	}
}

// emitter writes the unit and keeps track of the current output line so
// #line directives can switch back to the generated text.
type emitter struct {
	b    strings.Builder
	line int
	file string
}

const unitName = "rendergraph_unit.cpp"

func newEmitter(sourcePath string) *emitter {
	return &emitter{line: 1, file: sourcePath}
}

func (e *emitter) String() string { return e.b.String() }

func (e *emitter) write(s string) {
	e.b.WriteString(s)
	e.line += strings.Count(s, "\n")
}

func (e *emitter) linef(format string, args ...any) {
	e.write(fmt.Sprintf(format, args...) + "\n")
}

// sourceLine points diagnostics for the next line at the graph source.
func (e *emitter) sourceLine(line int) {
	e.linef("#line %d %s", line, strconv.Quote(e.file))
}

// generatedLine points diagnostics back at the unit itself.
func (e *emitter) generatedLine() {
	e.linef("#line %d %s", e.line+1, strconv.Quote(unitName))
}

func (e *emitter) header(opts Options) {
	e.linef("// Code generated by rendergraph from %s. DO NOT EDIT.", e.file)
	e.linef("#include <cstdint>")
	for _, inc := range opts.Prelude {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		if !strings.HasPrefix(inc, "<") && !strings.HasPrefix(inc, `"`) {
			inc = strconv.Quote(inc)
		}
		e.linef("#include %s", inc)
	}
	e.linef("")
	e.linef("#if defined(_MSC_VER)")
	e.linef(`#define RG_EXPORT extern "C" __declspec(dllexport)`)
	e.linef("#else")
	e.linef(`#define RG_EXPORT extern "C" __attribute__((visibility("default")))`)
	e.linef("#endif")
	e.linef("")
	e.linef("#ifndef FIXED_BEGIN")
	e.linef("#define FIXED_BEGIN")
	e.linef("#define FIXED_END")
	e.linef("#endif")
	e.linef("")
}

// source copies everything outside of the pass blocks.
func (e *emitter) source(src string, spans []parser.Span) {
	pos := 0
	chunk := func(end int) {
		text := src[pos:end]
		if strings.TrimSpace(text) == "" {
			return
		}
		e.sourceLine(1 + strings.Count(src[:pos], "\n"))
		e.write(text)
		if !strings.HasSuffix(text, "\n") {
			e.write("\n")
		}
	}
	for _, sp := range spans {
		chunk(sp.Start)
		pos = sp.End
	}
	chunk(len(src))
	e.generatedLine()
	e.linef("")
}

// blank replaces every byte of body[start:end] except newlines with a
// space, so line numbers after the region do not move.
func blank(body []byte, start, end int) {
	for i := start; i < end; i++ {
		if body[i] != '\n' {
			body[i] = ' '
		}
	}
}

// mainBody is the per-frame body: fixed blocks are blanked out.
func mainBody(g genPass) string {
	b := []byte(g.body)
	for _, fb := range g.blocks {
		blank(b, fb.Start, fb.End)
	}
	return string(b)
}

// fixedBody is the body of a FIXED pass: fixed blocks run in place, only
// their markers are dropped.
func fixedBody(g genPass) string {
	b := []byte(g.body)
	for _, fb := range g.blocks {
		blank(b, fb.Start, fb.StmtStart)
		blank(b, fb.StmtStart+len(fb.Stmt), fb.End)
	}
	return string(b)
}

func (e *emitter) passFunctions(g genPass, opts Options) {
	params := make([]string, 0, len(g.decls)+1)
	params = append(params, opts.ContextType+" "+opts.ContextName)
	for _, d := range g.decls {
		params = append(params, d.String())
	}
	signature := strings.Join(params, ", ")

	if g.info.Fixed {
		e.function(g.info.Symbol, signature, g.line, fixedBody(g))
		return
	}
	e.function(g.info.Symbol, signature, g.line, mainBody(g))
	if len(g.blocks) == 0 {
		return
	}

	e.linef("RG_EXPORT void %s(%s) {", g.info.BakeSymbol, signature)
	for _, fb := range g.blocks {
		e.sourceLine(fb.Line)
		e.write(fb.Stmt + "\n")
	}
	e.generatedLine()
	e.linef("}")
	e.linef("")
}

func (e *emitter) function(symbol, signature string, line int, body string) {
	e.linef("RG_EXPORT void %s(%s) {", symbol, signature)
	e.sourceLine(line)
	e.write(body)
	if !strings.HasSuffix(body, "\n") {
		e.write("\n")
	}
	e.generatedLine()
	e.linef("}")
	e.linef("")
}

func (e *emitter) bindTables(gens []genPass) {
	e.linef("static bool rg_bound(void* const* slots, uint32_t n) {")
	e.linef("\tfor (uint32_t i = 0; i < n; ++i) {")
	e.linef("\t\tif (!slots[i]) return false;")
	e.linef("\t}")
	e.linef("\treturn true;")
	e.linef("}")
	e.linef("")
	for _, g := range gens {
		if n := len(g.decls); n > 0 {
			e.linef("static void* %s%s[%d] = {};", bindPrefix, g.info.Name, n)
		}
	}
	e.linef("")
}

// args is the argument list that forwards g's binding table.
func callArgs(g genPass, opts Options) string {
	args := []string{"(" + opts.ContextType + ")ctx"}
	table := bindPrefix + g.info.Name
	for i, d := range g.decls {
		args = append(args, forward(d, fmt.Sprintf("%s[%d]", table, i)))
	}
	return strings.Join(args, ", ")
}

// bound is the condition under which g may run, empty when g has no
// parameters.
func bound(g genPass) string {
	if n := len(g.decls); n > 0 {
		return fmt.Sprintf("rg_bound(%s%s, %d)", bindPrefix, g.info.Name, n)
	}
	return ""
}

func (e *emitter) exports(gens []genPass, opts Options) {
	e.linef("RG_EXPORT int %s(uint32_t pass, uint32_t param, void* ptr) {", BindSymbol)
	e.linef("\tswitch (pass) {")
	for _, g := range gens {
		e.linef("\tcase %d:", g.info.Index)
		if n := len(g.decls); n > 0 {
			e.linef("\t\tif (param >= %d) return %d;", n, BindBadParameter)
			e.linef("\t\t%s%s[param] = ptr;", bindPrefix, g.info.Name)
			e.linef("\t\treturn %d;", BindOK)
		} else {
			e.linef("\t\treturn %d;", BindBadParameter)
		}
	}
	e.linef("\t}")
	e.linef("\treturn %d;", BindUnknownPass)
	e.linef("}")
	e.linef("")

	e.linef("RG_EXPORT uint32_t %s(void* ctx) {", EntrySymbol)
	e.linef("\t(void)ctx;")
	e.linef("\tuint32_t skipped = 0;")
	for _, g := range gens {
		if g.info.Fixed {
			continue
		}
		call := fmt.Sprintf("%s(%s);", g.info.Symbol, callArgs(g, opts))
		if cond := bound(g); cond != "" {
			e.linef("\tif (%s) %s else ++skipped;", cond, call)
		} else {
			e.linef("\t%s", call)
		}
	}
	e.linef("\treturn skipped;")
	e.linef("}")
	e.linef("")

	for _, g := range gens {
		if g.info.BakeSymbol != "" {
			e.linef("static bool %s%s = false;", bakedPrefix, g.info.Name)
		}
	}
	e.linef("RG_EXPORT uint32_t %s(void* ctx) {", BakeSymbol)
	e.linef("\t(void)ctx;")
	e.linef("\tuint32_t pending = 0;")
	for _, g := range gens {
		if g.info.BakeSymbol == "" {
			continue
		}
		flag := bakedPrefix + g.info.Name
		call := fmt.Sprintf("%s(%s); %s = true;", g.info.BakeSymbol, callArgs(g, opts), flag)
		if cond := bound(g); cond != "" {
			e.linef("\tif (!%s) { if (%s) { %s } else ++pending; }", flag, cond, call)
		} else {
			e.linef("\tif (!%s) { %s }", flag, call)
		}
	}
	e.linef("\treturn pending;")
	e.linef("}")
	e.linef("")

	e.linef("RG_EXPORT uint32_t %s(void) {", CountSymbol)
	e.linef("\treturn %d;", len(gens))
	e.linef("}")
}
