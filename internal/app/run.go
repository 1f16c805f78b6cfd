package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/ctxlog"
	"github.com/specialistvlad/rendergraph/internal/fsutil"
	"github.com/specialistvlad/rendergraph/internal/rendergraph"
	"github.com/specialistvlad/rendergraph/internal/watch"
	"golang.org/x/sync/errgroup"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.Inspect {
		return a.inspect(ctx, a.config.GraphPath)
	}

	files, err := fsutil.ExpandGraphPath(a.config.GraphPath, fsutil.GraphExt)
	if err != nil {
		return fmt.Errorf("failed to find graphs: %w", err)
	}
	a.logger.Debug("Graph sources discovered.", "count", len(files))

	if len(files) > 1 && a.profile.Compile.OutputName != "" {
		return fmt.Errorf("output name %q is set but %s holds %d graphs", a.profile.Compile.OutputName, a.config.GraphPath, len(files))
	}

	if a.config.Watch {
		if len(files) != 1 {
			return fmt.Errorf("watch needs a single graph, %s holds %d", a.config.GraphPath, len(files))
		}
		return a.watch(ctx, files[0])
	}

	defer a.registry.Teardown()

	a.logger.Info("Compiling graphs.", "count", len(files), "workers", a.config.WorkerCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.WorkerCount)
	for _, file := range files {
		g.Go(func() error {
			graph, err := a.compile(gctx, file)
			if err != nil {
				return err
			}
			defer graph.Close()
			return a.runFrames(gctx, graph)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// outputName derives a module name for file that is unique among the graphs
// below the command line path.
func (a *App) outputName(file string) string {
	name := filepath.Base(file)
	if rel, err := filepath.Rel(a.config.GraphPath, file); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		name = rel
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(filepath.ToSlash(name), "/", "_")
}

// compile creates a graph for file and builds it into a ready module. The
// caller owns the returned graph.
func (a *App) compile(ctx context.Context, file string) (*rendergraph.Graph, error) {
	req, err := a.profile.Request(a.outputName(file))
	if err != nil {
		return nil, err
	}
	graph := a.newGraph()
	if err := graph.LoadFromFile(ctx, file); err != nil {
		graph.Close()
		return nil, err
	}
	passes := len(graph.Passes())
	if err := graph.Compile(ctx, req); err != nil {
		graph.Close()
		return nil, err
	}
	a.printf("%s -> %s (%d passes)\n", file, graph.ArtifactPath(), passes)
	return graph, nil
}

func (a *App) runFrames(ctx context.Context, graph *rendergraph.Graph) error {
	for i := 0; i < a.config.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := graph.NextFrame(); err != nil {
			return fmt.Errorf("frame %d of %s: %w", i, graph.SourcePath(), err)
		}
	}
	if a.config.Frames > 0 {
		ctxlog.FromContext(ctx).Info("Frames finished.", "source", graph.SourcePath(), "frames", graph.Frames())
	}
	return nil
}

// watch keeps one graph alive and rebuilds it on every change of file. A
// failed rebuild keeps the previous module loaded but runs no frames.
func (a *App) watch(ctx context.Context, file string) error {
	logger := ctxlog.FromContext(ctx)
	req, err := a.profile.Request(a.outputName(file))
	if err != nil {
		return err
	}

	graph := a.newGraph()
	defer a.registry.Teardown()
	defer graph.Close()

	rebuild := func(ctx context.Context) error {
		if err := graph.LoadFromFile(ctx, file); err != nil {
			return err
		}
		if err := graph.Compile(ctx, req); err != nil {
			return err
		}
		a.printf("%s -> %s (reloaded)\n", file, graph.ArtifactPath())
		return a.runFrames(ctx, graph)
	}

	if err := rebuild(ctx); err != nil {
		logger.Error("Initial build failed, waiting for changes.", "source", file, "error", err)
	}
	return watch.New(0).Run(ctx, file, rebuild)
}
