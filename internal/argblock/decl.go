package argblock

import (
	"fmt"
	"regexp"
	"strings"
)

// DeclKind says how a bound argument pointer is forwarded to a parameter.
type DeclKind int

const (
	// KindValue parameters receive a copy of the pointee.
	KindValue DeclKind = iota
	// KindReference parameters alias the pointee.
	KindReference
	// KindPointer parameters receive the bound pointer itself.
	KindPointer
)

// String implements fmt.Stringer.
func (k DeclKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindReference:
		return "reference"
	case KindPointer:
		return "pointer"
	default:
		return fmt.Sprintf("DeclKind(%d)", int(k))
	}
}

// Decl is one declaration split into its type and identifier.
type Decl struct {
	Type string
	Name string
	Kind DeclKind
}

// BaseType is the declared type without a trailing reference marker.
func (d Decl) BaseType() string {
	if d.Kind == KindReference {
		return strings.TrimSpace(strings.TrimSuffix(d.Type, "&"))
	}
	return d.Type
}

// String re-joins the declaration.
func (d Decl) String() string {
	return d.Type + " " + d.Name
}

var trailingIdent = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*$`)

// SplitDecl splits a declaration such as "const buffer& vb" into its type and
// identifier. Default values are ignored. Arrays and rvalue references are
// rejected because they cannot be forwarded from an untyped pointer slot.
func SplitDecl(decl string) (Decl, error) {
	decl = strings.TrimSpace(decl)
	if i := topLevelIndex(decl, '='); i >= 0 {
		decl = strings.TrimSpace(decl[:i])
	}
	if decl == "" {
		return Decl{}, fmt.Errorf("empty declaration")
	}
	if strings.HasSuffix(decl, "]") {
		return Decl{}, fmt.Errorf("declaration %q: array parameters are not supported", decl)
	}

	m := trailingIdent.FindStringSubmatchIndex(decl)
	if m == nil {
		return Decl{}, fmt.Errorf("declaration %q has no identifier", decl)
	}
	name := decl[m[2]:m[3]]
	typ := strings.TrimSpace(decl[:m[2]])
	if typ == "" || typ == "const" {
		return Decl{}, fmt.Errorf("declaration %q has no type", decl)
	}

	d := Decl{Type: typ, Name: name, Kind: KindValue}
	switch {
	case strings.HasSuffix(typ, "&&"):
		return Decl{}, fmt.Errorf("declaration %q: rvalue references are not supported", decl)
	case strings.HasSuffix(typ, "&"):
		d.Kind = KindReference
	case strings.HasSuffix(typ, "*"):
		d.Kind = KindPointer
	}
	return d, nil
}

// Decls splits every declaration of the block.
func (b Block) Decls() ([]Decl, error) {
	out := make([]Decl, 0, len(b.entries))
	for _, e := range b.entries {
		d, err := SplitDecl(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// topLevelIndex finds c outside of any bracket pair.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
