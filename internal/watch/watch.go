// Package watch re-runs a callback when a graph source file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/rendergraph/internal/ctxlog"
)

// DefaultDebounce is long enough to fold the write bursts editors produce
// when saving.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches one file. The parent directory is watched rather than the
// file itself, since editors often save by writing a new file and renaming it
// over the old one.
type Watcher struct {
	Debounce time.Duration
}

// New returns a watcher with the given debounce; zero selects DefaultDebounce.
func New(debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{Debounce: debounce}
}

// Run calls onChange after writes to path settle. Errors from onChange are
// logged and the watch continues. Run returns nil once ctx is done.
func (w *Watcher) Run(ctx context.Context, path string, onChange func(context.Context) error) error {
	logger := ctxlog.FromContext(ctx)

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(target)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch: failed to watch %s: %w", dir, err)
	}
	logger.Info("Watching graph source.", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.", "path", target)
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("Graph source changed.", "path", target, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				logger.Error("Reload failed.", "path", target, "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "path", target, "error", err)
		}
	}
}
