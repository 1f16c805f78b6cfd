package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/argblock"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/manifest"
)

// inspect prints the pass manifest of a compiled module. path may name the
// module or its manifest.
func (a *App) inspect(ctx context.Context, path string) error {
	if filepath.Ext(path) != manifest.Ext {
		path = manifest.PathFor(path)
	}
	ctxlog.FromContext(ctx).Debug("Reading pass manifest.", "path", path)

	m, err := manifest.Read(path)
	if err != nil {
		return fmt.Errorf("failed to inspect: %w", err)
	}

	a.printf("source: %s\n", m.Source)
	for _, e := range m.Passes {
		kind := "frame"
		if e.Fixed {
			kind = "fixed"
		}
		a.printf("%3d  %-24s %-5s %s\n", e.Index, e.Name, kind, e.Symbol)
		if e.FixedBlocks > 0 {
			a.printf("       %-10s %s (%d blocks)\n", "bake", e.BakeSymbol, e.FixedBlocks)
		}
		for _, group := range []struct {
			role  string
			block argblock.Block
		}{
			{"read", e.Read},
			{"write", e.Write},
			{"read_write", e.ReadWrite},
			{"input", e.Input},
		} {
			if group.block.Empty() {
				continue
			}
			a.printf("       %-10s %s\n", group.role, strings.Join(group.block.Entries(), ", "))
		}
	}
	return nil
}
