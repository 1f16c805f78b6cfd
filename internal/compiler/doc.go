/*
Package compiler drives an external C++ toolchain to build a generated
translation unit into a shared module.

The Orchestrator is backend agnostic. A Backend only knows how to turn a
compileargs.Args value into its own command line; writing the unit to disk,
running the tool, checking the artifact and publishing it under its final
name are shared. Every outcome is reported as a Result with one of a small
closed set of codes. Nothing is retried.

A failed compile never leaves a file at the artifact path that was not
there before: the tool writes to a temporary name in the output directory
and the file is renamed into place only after the tool exited zero and the
file exists.
*/
package compiler
