// Package config defines the format-agnostic build profile for render graphs,
// along with the Loader interface implemented by the format adapters.
//
// A Profile carries the compile settings and the code generation options
// that would otherwise be given on the command line. Concrete loaders for HCL
// and TOML live in separate packages; Loaders picks one by file extension.
package config
