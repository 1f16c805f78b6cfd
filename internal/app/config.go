package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
// Empty string fields mean "take the value from the profile".
type Config struct {
	GraphPath   string // a graph file or a directory of them
	ProfilePath string // .hcl or .toml build profile

	Compiler     string
	Standard     string
	Optimization string
	OutputName   string
	OutputDir    string
	IncludeDirs  []string
	ExtraFlags   string

	// Frames is the number of frames to run after each successful compile.
	Frames int
	// Watch recompiles the graph whenever its source changes.
	Watch bool
	// Inspect prints the pass manifest of GraphPath instead of compiling.
	Inspect bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.Inspect && cfg.Watch {
		return nil, errors.New("inspect and watch cannot be combined")
	}
	return &cfg, nil
}
