// Package manifest reads and writes the pass table stored next to a
// compiled module. Tools use it to list a module's passes and their
// parameters without loading the module.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/rendergraph/internal/argblock"
	"github.com/specialistvlad/rendergraph/internal/preprocess"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is bumped whenever the encoding changes.
const Version = 2

// Ext is appended to the artifact path to form the manifest path.
const Ext = ".passes"

// Entry describes one pass of the module.
type Entry struct {
	Index  int    `msgpack:"index"`
	Name   string `msgpack:"name"`
	Fixed  bool   `msgpack:"fixed"`
	Symbol string `msgpack:"symbol"`
	// BakeSymbol is empty for passes with no bake-time work.
	BakeSymbol  string `msgpack:"bake_symbol,omitempty"`
	FixedBlocks int    `msgpack:"fixed_blocks,omitempty"`

	Read      argblock.Block `msgpack:"read"`
	Write     argblock.Block `msgpack:"write"`
	ReadWrite argblock.Block `msgpack:"read_write"`
	Input     argblock.Block `msgpack:"input"`
}

// Params returns the parameter declarations in binding order.
func (e Entry) Params() []string {
	var out []string
	for _, b := range []argblock.Block{e.Read, e.Write, e.ReadWrite, e.Input} {
		out = append(out, b.Entries()...)
	}
	return out
}

// Manifest is the sidecar content.
type Manifest struct {
	Version int     `msgpack:"version"`
	Source  string  `msgpack:"source"`
	Passes  []Entry `msgpack:"passes"`
}

// PathFor returns the manifest path of an artifact.
func PathFor(artifact string) string { return artifact + Ext }

// FromUnit builds the manifest of a generated unit.
func FromUnit(source string, u *preprocess.Unit) *Manifest {
	m := &Manifest{Version: Version, Source: source}
	for _, p := range u.Passes {
		m.Passes = append(m.Passes, Entry{
			Index:       p.Index,
			Name:        p.Name,
			Fixed:       p.Fixed,
			Symbol:      p.Symbol,
			BakeSymbol:  p.BakeSymbol,
			FixedBlocks: p.FixedBlocks,
			Read:        p.Read,
			Write:       p.Write,
			ReadWrite:   p.ReadWrite,
			Input:       p.Input,
		})
	}
	return m
}

// Write encodes m to path through a temporary file and a rename.
func Write(path string, m *Manifest) error {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read decodes the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest %s has version %d, want %d", path, m.Version, Version)
	}
	return &m, nil
}

// Lookup finds a pass by name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Passes {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
