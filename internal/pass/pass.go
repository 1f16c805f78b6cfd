// Package pass defines the structured record of one parsed render pass.
package pass

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/specialistvlad/rendergraph/internal/argblock"
)

// ErrDuplicateName is returned when two passes in one graph share a name.
var ErrDuplicateName = errors.New("duplicate pass name")

var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName checks that name can be used inside generated C symbols.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("pass name is empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("pass name %q is not a valid identifier", name)
	}
	return nil
}

// Descriptor is one declared unit of GPU work.
type Descriptor struct {
	Name  string
	Fixed bool

	Read      argblock.Block
	Write     argblock.Block
	ReadWrite argblock.Block
	Input     argblock.Block

	// Body is the verbatim text between the pass's opening and closing braces.
	Body string
	// FixedBlocks are the FIXED_BEGIN ... FIXED_END sections of Body, in
	// order. They run once at bake time instead of every frame.
	FixedBlocks []FixedBlock

	// Line and Offset locate PASS_BEGIN in the graph source.
	Line   int
	Offset int
	// BodyLine is the source line holding the body's first byte.
	BodyLine int
}

// FixedBlock is one FIXED_BEGIN { ... } FIXED_END section of a pass body.
// Start and End delimit the whole section, markers included, as offsets
// into Body. Stmt is the braced statement between the markers and starts at
// StmtStart.
type FixedBlock struct {
	Start     int
	End       int
	StmtStart int
	Stmt      string
	// Line is the source line holding the first byte of Stmt.
	Line int
}

// HasBake reports whether the pass has work to do at bake time.
func (d *Descriptor) HasBake() bool { return d.Fixed || len(d.FixedBlocks) > 0 }

// BodyLen is the byte length of the captured body.
func (d *Descriptor) BodyLen() int { return len(d.Body) }

// Params returns every declaration in emission order: read, write,
// read-write, then input.
func (d *Descriptor) Params() argblock.Block {
	var all []string
	for _, b := range []argblock.Block{d.Read, d.Write, d.ReadWrite, d.Input} {
		all = append(all, b.Entries()...)
	}
	return argblock.New(all...)
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	kind := "dynamic"
	if d.Fixed {
		kind = "fixed"
	}
	return fmt.Sprintf("pass %s (%s) %s", d.Name, kind, d.Params())
}

// Set is an ordered collection of descriptors with unique names.
type Set struct {
	items []*Descriptor
	index map[string]int
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add appends d, rejecting a name that is already present.
func (s *Set) Add(d *Descriptor) error {
	if _, exists := s.index[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
	}
	s.index[d.Name] = len(s.items)
	s.items = append(s.items, d)
	return nil
}

// All returns the passes in source order.
func (s *Set) All() []*Descriptor {
	out := make([]*Descriptor, len(s.items))
	copy(out, s.items)
	return out
}
