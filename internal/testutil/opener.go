package testutil

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/rendergraph/internal/loader"
)

// FakeOpener is an in-memory loader.Opener. Every opened library exposes
// the symbols in Symbols; paths listed in Fail cannot be opened.
type FakeOpener struct {
	Symbols map[string]uintptr
	Fail    map[string]error

	mu     sync.Mutex
	opens  map[string]int
	closes map[string]int
	open   map[string]bool
}

var _ loader.Opener = (*FakeOpener)(nil)

// NewFakeOpener returns an opener whose libraries export symbols.
func NewFakeOpener(symbols map[string]uintptr) *FakeOpener {
	return &FakeOpener{Symbols: symbols}
}

// Open implements loader.Opener.
func (o *FakeOpener) Open(path string) (loader.Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err, ok := o.Fail[path]; ok {
		return nil, err
	}
	if o.open[path] {
		return nil, fmt.Errorf("fake opener: %s opened twice without close", path)
	}
	if o.opens == nil {
		o.opens = make(map[string]int)
		o.closes = make(map[string]int)
		o.open = make(map[string]bool)
	}
	o.opens[path]++
	o.open[path] = true
	return &FakeLibrary{opener: o, path: path}, nil
}

// Opens returns how many times path was opened.
func (o *FakeOpener) Opens(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens[path]
}

// Closes returns how many times path was closed.
func (o *FakeOpener) Closes(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes[path]
}

// IsOpen reports whether path is currently open.
func (o *FakeOpener) IsOpen(path string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open[path]
}

// FakeLibrary is a library handed out by FakeOpener.
type FakeLibrary struct {
	opener *FakeOpener
	path   string
}

// Symbol implements loader.Library.
func (l *FakeLibrary) Symbol(name string) (uintptr, error) {
	l.opener.mu.Lock()
	defer l.opener.mu.Unlock()

	if !l.opener.open[l.path] {
		return 0, errors.New("fake library: use after close")
	}
	sym, ok := l.opener.Symbols[name]
	if !ok {
		return 0, fmt.Errorf("fake library: no symbol %q", name)
	}
	return sym, nil
}

// Close implements loader.Library.
func (l *FakeLibrary) Close() error {
	l.opener.mu.Lock()
	defer l.opener.mu.Unlock()

	if !l.opener.open[l.path] {
		return errors.New("fake library: double close")
	}
	l.opener.open[l.path] = false
	l.opener.closes[l.path]++
	return nil
}
