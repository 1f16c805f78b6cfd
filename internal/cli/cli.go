package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/rendergraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("rendergraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
rendergraph - compiles render pass graphs into native modules and runs them.

Usage:
  rendergraph [options] GRAPH_PATH

Arguments:
  GRAPH_PATH
    Path to a single graph file or a directory containing .rg files.
    With -inspect, the path of a compiled module or its .passes manifest.

Options:
`)
		flagSet.PrintDefaults()
	}

	var includeDirs stringList
	profileFlag := flagSet.String("profile", "", "Path to a .hcl or .toml build profile.")
	compilerFlag := flagSet.String("compiler", "", "Compiler to use: 'g++', 'clang' or 'msvc'. Overrides the profile.")
	stdFlag := flagSet.String("std", "", "C++ standard: 'c++14', 'c++17', 'c++20', 'c++23' or 'draft'.")
	optFlag := flagSet.String("O", "", "Optimization level: 'none', 'O1', 'O2' or 'max'.")
	outFlag := flagSet.String("out", "", "Output module name, without extension. Defaults to the graph file name.")
	outDirFlag := flagSet.String("out-dir", "", "Directory for compiled modules.")
	flagSet.Var(&includeDirs, "I", "Additional include directory. May be repeated.")
	extraFlags := flagSet.String("flags", "", "Extra compiler flags, split like a shell command line.")
	framesFlag := flagSet.Int("frames", 0, "Number of frames to run after compiling.")
	watchFlag := flagSet.Bool("watch", false, "Recompile and reload the graph whenever its source changes.")
	inspectFlag := flagSet.Bool("inspect", false, "Print the pass manifest of a compiled module and exit.")
	workersFlag := flagSet.Int("workers", 4, "Number of graphs compiled concurrently in directory mode.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one GRAPH_PATH, got %d", flagSet.NArg())}
	}
	path := flagSet.Arg(0)
	slog.Debug("Graph path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPath:    path,
		ProfilePath:  *profileFlag,
		Compiler:     *compilerFlag,
		Standard:     *stdFlag,
		Optimization: *optFlag,
		OutputName:   *outFlag,
		OutputDir:    *outDirFlag,
		IncludeDirs:  includeDirs,
		ExtraFlags:   *extraFlags,
		Frames:       *framesFlag,
		Watch:        *watchFlag,
		Inspect:      *inspectFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		WorkerCount:  *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
