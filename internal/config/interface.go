package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Loader is the interface for a format-specific profile loader.
type Loader interface {
	// Load reads the profile at path and translates it into the
	// format-agnostic model. Relative paths in the profile are resolved
	// against the directory of path.
	Load(ctx context.Context, path string) (*Profile, error)
}

// Loaders maps a file extension, dot included, to the loader for it.
type Loaders map[string]Loader

// For returns the loader registered for the extension of path.
func (l Loaders) For(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := l[ext]; ok {
		return loader, nil
	}
	known := make([]string, 0, len(l))
	for k := range l {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("no profile loader for %q (supported: %s)", path, strings.Join(known, ", "))
}

// Load picks the loader for path and runs it.
func (l Loaders) Load(ctx context.Context, path string) (*Profile, error) {
	loader, err := l.For(path)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, path)
}
