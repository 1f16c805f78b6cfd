package loader

// Library is an open shared module.
type Library interface {
	// Symbol returns the address of an exported symbol.
	Symbol(name string) (uintptr, error)
	Close() error
}

// Opener opens shared modules from disk.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Library, error) { return f(path) }
