package compiler

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// VersionReader reports the version of a toolchain executable.
type VersionReader interface {
	Version(ctx context.Context, exe string) (*semver.Version, error)
}

var versionRegex = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// CommandVersionReader runs "<exe> --version" and takes the first dotted version
// number in the output. Results are cached per executable.
type CommandVersionReader struct {
	Runner Runner

	mu    sync.Mutex
	cache map[string]*semver.Version
}

// NewVersionReader returns a version reader that uses r.
func NewVersionReader(r Runner) *CommandVersionReader {
	return &CommandVersionReader{Runner: r, cache: make(map[string]*semver.Version)}
}

// Version implements VersionReader.
func (p *CommandVersionReader) Version(ctx context.Context, exe string) (*semver.Version, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.cache[exe]; ok {
		return v, nil
	}

	out, err := p.Runner.Run(ctx, "", exe, "--version")
	if err != nil {
		return nil, fmt.Errorf("failed to read the version of %s: %w", exe, err)
	}
	v, err := ParseVersion(string(out))
	if err != nil {
		return nil, fmt.Errorf("failed to read the version of %s: %w", exe, err)
	}
	if p.cache == nil {
		p.cache = make(map[string]*semver.Version)
	}
	p.cache[exe] = v
	return v, nil
}

// ParseVersion extracts the first version number from toolchain banner text
// such as "g++ (Ubuntu 13.2.0-23ubuntu4) 13.2.0".
func ParseVersion(text string) (*semver.Version, error) {
	m := versionRegex.FindString(text)
	if m == "" {
		return nil, fmt.Errorf("no version number in %q", firstLine(text))
	}
	return semver.NewVersion(m)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// checkVersion reports whether v satisfies constraint.
func checkVersion(v *semver.Version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
