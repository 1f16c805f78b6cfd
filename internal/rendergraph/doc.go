/*
Package rendergraph is the facade over the whole pipeline: it reads a graph
source, generates and compiles its translation unit, loads the module and
runs it once per frame.

A Graph moves through Empty, Parsed, Compiled and Ready. Any operation that
fails leaves the state where it was and records the failure, which Status
reports until the next successful operation. A failed compile therefore
never unloads a module that is already running.

	g := rendergraph.New(reg)
	defer g.Close()

	if err := g.LoadFromFile(ctx, "scene.rg"); err != nil {
		return err
	}
	if err := g.Compile(ctx, req); err != nil { // loads the module too
		return err
	}
	for running {
		g.NextFrame()
	}

Recompiling a Ready graph releases the old module before acquiring the new
one, so the same artifact path can be rebuilt in place.

FIXED passes, and the FIXED_BEGIN { ... } FIXED_END blocks inside other
passes, run in a bake phase: once per load, before the first frame that
finds all of the pass's parameters bound. A pass with unbound parameters is
skipped and the graph logs a warning naming it.
*/
package rendergraph
