package theme

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rileyhilliard/vmm/internal/logger"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads a Manager when the theme file changes on disk and calls
// onChange when the visible theme differs afterwards.
type Watcher struct {
	manager  *Manager
	log      logger.Logger
	onChange func()
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directory holding the manager's theme file. The
// directory is watched rather than the file because saves replace the file
// by rename.
func NewWatcher(m *Manager, log logger.Logger, onChange func()) (*Watcher, error) {
	if log == nil {
		log = logger.Noop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(m.store.Path())); err != nil {
		fw.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(m.store.Path()), err)
	}
	return &Watcher{manager: m, log: log, onChange: onChange, watcher: fw}, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close() //nolint:errcheck

	target := filepath.Clean(w.manager.store.Path())
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(reloadDelay)
		case <-pending:
			pending = nil
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Theme watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.manager.Reload(ctx)
	if err != nil {
		w.log.Warn("Couldn't reload themes: %v", err)
		return
	}
	if changed {
		w.log.Info("Theme file changed on disk, now using %s", w.manager.CurrentName())
		if w.onChange != nil {
			w.onChange()
		}
	}
}
