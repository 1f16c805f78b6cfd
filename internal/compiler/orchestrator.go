package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/specialistvlad/rendergraph/internal/compileargs"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
)

// unitFileName is the name of the staged translation unit.
const unitFileName = "rendergraph_unit.cpp"

// Orchestrator builds translation units with a chosen backend.
type Orchestrator struct {
	Runner   Runner
	Backends map[compileargs.Compiler]Backend
	// TempDir is where units are staged. Empty means os.TempDir().
	TempDir string
	// Versions, when set, gates language standards on the toolchain version.
	Versions VersionReader
	// GOOS picks the artifact extension. Empty means runtime.GOOS.
	GOOS string
}

// New returns an orchestrator with the default backends and a version
// reader sharing r.
func New(r Runner) *Orchestrator {
	return &Orchestrator{
		Runner:   r,
		Backends: DefaultBackends(),
		Versions: NewVersionReader(r),
	}
}

// Compile builds unit into the shared module described by req.
func (o *Orchestrator) Compile(ctx context.Context, unit string, req compileargs.Request) Result {
	logger := ctxlog.FromContext(ctx)

	if strings.TrimSpace(unit) == "" {
		return failure(FailureSourceInvalid, "", "translation unit is empty")
	}

	backend, ok := o.Backends[req.Compiler]
	if !ok || backend == nil {
		return failure(FailureUnsupportedCompiler, "", "%s", req.Compiler)
	}

	std := req.Args.Standard.Resolve()
	if res, ok := o.checkStandard(ctx, backend, std); !ok {
		return res
	}

	if err := req.Validate(); err != nil {
		return failure(FailureCommand, "", "invalid request: %w", err)
	}
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	final, err := filepath.Abs(req.ArtifactPath(goos))
	if err != nil {
		return failure(FailureCommand, "", "failed to resolve artifact path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return failure(FailureCommand, "", "failed to create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(o.TempDir, "rendergraph-*")
	if err != nil {
		return failure(FailureSourceInvalid, "", "failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	srcPath := filepath.Join(workDir, unitFileName)
	if err := os.WriteFile(srcPath, []byte(unit), 0o644); err != nil {
		return failure(FailureSourceInvalid, "", "failed to stage translation unit: %w", err)
	}

	partial, err := reservePartial(final)
	if err != nil {
		return failure(FailureCommand, "", "failed to reserve temporary artifact: %w", err)
	}
	published := false
	defer func() {
		if !published {
			os.Remove(partial)
		}
	}()

	args, err := backend.Command(srcPath, partial, req.Args)
	if err != nil {
		return failure(FailureInvalidStandard, "", "%w", err)
	}

	logger.Debug("Compiling translation unit.",
		"compiler", backend.Name(),
		"std", std,
		"opt", req.Args.Optimization,
		"artifact", final,
	)
	start := time.Now()
	out, err := o.Runner.Run(ctx, workDir, backend.Executable(), args...)
	output := string(out)
	if err != nil {
		return failure(FailureCommand, output, "%s: %w", backend.Executable(), err)
	}

	if fi, err := os.Stat(partial); err != nil || fi.Size() == 0 {
		return failure(FailureCommand, output, "%s exited 0 but produced no artifact", backend.Executable())
	}
	if err := os.Rename(partial, final); err != nil {
		return failure(FailureCommand, output, "failed to publish artifact: %w", err)
	}
	published = true

	logger.Info("Compiled module.", "compiler", backend.Name(), "artifact", final, "duration", time.Since(start))
	return Result{Code: Success, ArtifactPath: final, Output: output}
}

// checkStandard validates std against the backend and, when a version reader is
// configured, against the installed toolchain version. A toolchain whose
// version cannot be read is not rejected; the compile itself decides.
func (o *Orchestrator) checkStandard(ctx context.Context, b Backend, std compileargs.Standard) (Result, bool) {
	if _, err := b.StandardFlag(std); err != nil {
		return failure(FailureInvalidStandard, "", "%w", err), false
	}
	constraint := b.VersionConstraint(std)
	if o.Versions == nil || constraint == "" {
		return Result{}, true
	}

	logger := ctxlog.FromContext(ctx)
	v, err := o.Versions.Version(ctx, b.Executable())
	if err != nil {
		logger.Warn("Could not determine compiler version, skipping standard check.", "compiler", b.Name(), "error", err)
		return Result{}, true
	}
	ok, err := checkVersion(v, constraint)
	if err != nil {
		return failure(FailureInvalidStandard, "", "bad version constraint %q: %w", constraint, err), false
	}
	if !ok {
		return failure(FailureInvalidStandard, "", "%s %s does not support %s (needs %s)", b.Name(), v, std, constraint), false
	}
	return Result{}, true
}

// reservePartial picks an unused file name next to final. The file is
// removed again so the tool creates it; only its name is reserved.
func reservePartial(final string) (string, error) {
	dir, base := filepath.Split(final)
	ext := filepath.Ext(base)
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+".*.partial"+ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := errors.Join(f.Close(), os.Remove(name)); err != nil {
		return "", fmt.Errorf("failed to release %s: %w", name, err)
	}
	return name, nil
}
