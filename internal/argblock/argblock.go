package argblock

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// terminator separates entries in the packed form.
const terminator = 0

// ErrCorrupt is returned when a packed buffer does not match its count.
var ErrCorrupt = errors.New("argblock: corrupt packed block")

// Block is an ordered list of declaration strings. The zero value is an
// empty block.
type Block struct {
	entries []string
}

// New builds a block from already split declarations. Surrounding whitespace
// is trimmed and empty entries are dropped.
func New(entries ...string) Block {
	var b Block
	for _, e := range entries {
		if strings.IndexByte(e, terminator) >= 0 {
			panic(fmt.Sprintf("argblock: declaration %q contains a NUL byte", e))
		}
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		b.entries = append(b.entries, e)
	}
	return b
}

// Parse splits a raw comma separated declaration list, as written between
// the parentheses of a list marker. Commas nested in (), [], {} or <> and
// commas inside string or char literals do not split. Double commas are
// treated as one. A list holding only NULL or void is empty, which is how
// a graph spells a list it does not use, e.g. WRITE(NULL).
func Parse(list string) Block {
	var (
		parts []string
		depth int
		start int
		quote byte
	)
	for i := 0; i < len(list); i++ {
		c := list[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, list[start:])
	b := New(parts...)
	if b.Count() == 1 && isEmptyMarker(b.entries[0]) {
		return Block{}
	}
	return b
}

func isEmptyMarker(decl string) bool {
	return decl == "NULL" || decl == "void"
}

// Count returns the number of declarations.
func (b Block) Count() int { return len(b.entries) }

// Empty reports whether the block has no declarations.
func (b Block) Empty() bool { return len(b.entries) == 0 }

// Entries returns a copy of the declarations.
func (b Block) Entries() []string {
	if len(b.entries) == 0 {
		return nil
	}
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}

// Join re-serializes the block as a comma separated declaration list.
func (b Block) Join() string {
	return strings.Join(b.entries, ", ")
}

// String implements fmt.Stringer.
func (b Block) String() string {
	return "(" + b.Join() + ")"
}

// Equal reports whether both blocks hold the same declarations in order.
func (b Block) Equal(other Block) bool {
	if len(b.entries) != len(other.entries) {
		return false
	}
	for i := range b.entries {
		if b.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// Pack returns the compact form: every declaration followed by a NUL byte.
// An empty block packs to an empty buffer.
func (b Block) Pack() []byte {
	var buf bytes.Buffer
	for _, e := range b.entries {
		buf.WriteString(e)
		buf.WriteByte(terminator)
	}
	return buf.Bytes()
}

// Unpack decodes a packed buffer. The number of terminator delimited
// segments must equal count.
func Unpack(packed []byte, count int) (Block, error) {
	if count < 0 {
		return Block{}, fmt.Errorf("%w: negative count %d", ErrCorrupt, count)
	}
	if len(packed) == 0 {
		if count != 0 {
			return Block{}, fmt.Errorf("%w: empty buffer with count %d", ErrCorrupt, count)
		}
		return Block{}, nil
	}
	if packed[len(packed)-1] != terminator {
		return Block{}, fmt.Errorf("%w: missing final terminator", ErrCorrupt)
	}

	segments := bytes.Split(packed[:len(packed)-1], []byte{terminator})
	if len(segments) != count {
		return Block{}, fmt.Errorf("%w: %d segments, count %d", ErrCorrupt, len(segments), count)
	}
	b := Block{entries: make([]string, 0, count)}
	for i, s := range segments {
		if len(s) == 0 {
			return Block{}, fmt.Errorf("%w: empty segment at index %d", ErrCorrupt, i)
		}
		b.entries = append(b.entries, string(s))
	}
	return b, nil
}

var (
	_ msgpack.CustomEncoder = (*Block)(nil)
	_ msgpack.CustomDecoder = (*Block)(nil)
)

// EncodeMsgpack writes the block as a two element array: count, packed bytes.
func (b *Block) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(b.Count())); err != nil {
		return err
	}
	return enc.EncodeBytes(b.Pack())
}

// DecodeMsgpack reads the form written by EncodeMsgpack.
func (b *Block) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("%w: expected 2 array elements, got %d", ErrCorrupt, n)
	}
	count, err := dec.DecodeInt()
	if err != nil {
		return err
	}
	packed, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	decoded, err := Unpack(packed, count)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}
