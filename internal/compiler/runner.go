package compiler

import (
	"context"
	"os/exec"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/ctxlog"
)

// Runner executes a program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run implements Runner. The command line is echoed at debug level.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running command.", "dir", dir, "cmd", name+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Debug("Command failed.", "cmd", name, "error", err)
	}
	return out, err
}
