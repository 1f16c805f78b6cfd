/*
Package loader keeps shared modules loaded for as long as anyone uses them.

A Registry maps a module path to an open library handle and a reference
count. The first Acquire of a path opens the library, every further Acquire
only counts, and the Release that brings the count back to zero closes it.
Several render graphs built from the same artifact therefore share one
handle, and one graph shutting down never unloads code another graph is
still calling.

All Registry methods serialize on a single mutex. The Registry is an
ordinary value: create one per process (or per test) and hand it to every
graph that should share modules.

Two caller bugs are not reported as errors but panic with *LifetimeError:
releasing a path that holds no reference, and tearing down while references
are outstanding. Both mean live handles are about to be invalidated.
*/
package loader
