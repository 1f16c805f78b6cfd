package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/parser"
	"github.com/specialistvlad/rendergraph/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `PASS_BEGIN(Bake1)
FIXED
WRITE(image& target)
{ clear(target); }
PASS_END
PASS_BEGIN(Draw1)
READ(const image& target, std::map<int, float>& weights)
INPUT(int count)
{
	draw(target, count);
	FIXED_BEGIN { record(target); } FIXED_END
}
PASS_END
`

func unitFor(t *testing.T) *preprocess.Unit {
	t.Helper()
	f, err := parser.ParseAll(src)
	require.NoError(t, err)
	u, err := preprocess.Generate(ctxlog.Discard(context.Background()), src, f.Passes, f.Spans, preprocess.Options{})
	require.NoError(t, err)
	return u
}

func TestWriteRead(t *testing.T) {
	// --- Arrange ---
	path := PathFor(filepath.Join(t.TempDir(), "graph.so"))
	m := FromUnit("scene.rg", unitFor(t))

	// --- Act ---
	require.NoError(t, Write(path, m))
	got, err := Read(path)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, "scene.rg", got.Source)
	require.Len(t, got.Passes, 2)

	bake, ok := got.Lookup("Bake1")
	require.True(t, ok)
	assert.True(t, bake.Fixed)
	assert.Equal(t, "rg_pass_bake_Bake1", bake.Symbol)
	assert.Equal(t, "rg_pass_bake_Bake1", bake.BakeSymbol)
	assert.Equal(t, []string{"image& target"}, bake.Write.Entries())

	draw, ok := got.Lookup("Draw1")
	require.True(t, ok)
	assert.Equal(t, 1, draw.Index)
	assert.Equal(t, []string{"const image& target", "std::map<int, float>& weights", "int count"}, draw.Params())
	assert.True(t, draw.ReadWrite.Empty())
	assert.Equal(t, "rg_pass_main_Draw1", draw.Symbol)
	assert.Equal(t, "rg_pass_bake_Draw1", draw.BakeSymbol)
	assert.Equal(t, 1, draw.FixedBlocks)
}

func TestRead_VersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.so.passes")
	require.NoError(t, Write(path, &Manifest{Version: Version + 1}))

	_, err := Read(path)

	assert.ErrorContains(t, err, "version")
}

func TestRead_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.so.passes")
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0x00}, 0o644))

	_, err := Read(path)

	assert.Error(t, err)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.passes"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
