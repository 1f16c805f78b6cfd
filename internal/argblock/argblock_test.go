package argblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single declaration",
			input:    "buffer& vertexBuffer",
			expected: []string{"buffer& vertexBuffer"},
		},
		{
			name:     "trims surrounding spaces but keeps inner spacing",
			input:    "  const buffer &  vb ,   int count  ",
			expected: []string{"const buffer &  vb", "int count"},
		},
		{
			name:     "double and trailing commas are dropped",
			input:    "a x,, b y,",
			expected: []string{"a x", "b y"},
		},
		{
			name:     "template arguments do not split",
			input:    "std::pair<int, float>& p, gpu_vector<res::vertex>& vertices",
			expected: []string{"std::pair<int, float>& p", "gpu_vector<res::vertex>& vertices"},
		},
		{
			name:     "commas in literals do not split",
			input:    `const char* label = "a,b", char sep = ','`,
			expected: []string{`const char* label = "a,b"`, `char sep = ','`},
		},
		{
			name:     "function types do not split",
			input:    "void (*cb)(int, int), int n",
			expected: []string{"void (*cb)(int, int)", "int n"},
		},
		{
			name:     "empty list",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "NULL spells an empty list",
			input:    " NULL ",
			expected: nil,
		},
		{
			name:     "void spells an empty list",
			input:    "void",
			expected: nil,
		},
		{
			name:     "NULL next to a declaration is kept",
			input:    "NULL, int n",
			expected: []string{"NULL", "int n"},
		},
		{
			name:     "void pointer is a declaration",
			input:    "void* p",
			expected: []string{"void* p"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := Parse(tc.input)
			assert.Equal(t, tc.expected, b.Entries())
			assert.Equal(t, len(tc.expected), b.Count())
		})
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	lists := []string{
		"buffer& vertexBuffer, buffer& indexBuffer",
		"graphicsPipelineCreateInfo& pipeline, window& wind, VkCommandBuffer& cmd",
		"std::map<int, std::vector<float>>& table",
		"int n",
	}

	for _, list := range lists {
		t.Run(list, func(t *testing.T) {
			b := Parse(list)
			assert.Equal(t, list, b.Join())
			assert.True(t, b.Equal(Parse(b.Join())))
		})
	}
}

func TestPackUnpack(t *testing.T) {
	b := New("buffer& vb", "int n")

	packed := b.Pack()
	assert.Equal(t, []byte("buffer& vb\x00int n\x00"), packed)

	out, err := Unpack(packed, 2)
	require.NoError(t, err)
	assert.True(t, b.Equal(out))
}

func TestPack_EmptyBlock(t *testing.T) {
	var b Block
	assert.Empty(t, b.Pack())
	assert.Equal(t, 0, b.Count())

	out, err := Unpack(nil, 0)
	require.NoError(t, err)
	assert.True(t, out.Empty())
}

func TestUnpack_CountMismatch(t *testing.T) {
	testCases := []struct {
		name   string
		packed []byte
		count  int
	}{
		{name: "too few segments", packed: []byte("a x\x00"), count: 2},
		{name: "too many segments", packed: []byte("a x\x00b y\x00"), count: 1},
		{name: "missing terminator", packed: []byte("a x"), count: 1},
		{name: "empty buffer with count", packed: nil, count: 1},
		{name: "empty segment", packed: []byte("a x\x00\x00"), count: 2},
		{name: "negative count", packed: nil, count: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unpack(tc.packed, tc.count)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestNew_PanicsOnNUL(t *testing.T) {
	assert.Panics(t, func() { New("a\x00b") })
}

func TestMsgpack(t *testing.T) {
	type wrapper struct {
		Read Block `msgpack:"read"`
	}
	in := wrapper{Read: Parse("buffer& vb, buffer& ib")}

	data, err := msgpack.Marshal(&in)
	require.NoError(t, err)

	var out wrapper
	require.NoError(t, msgpack.Unmarshal(data, &out))
	assert.Equal(t, in.Read.Entries(), out.Read.Entries())
}
