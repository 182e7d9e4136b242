package responses

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-applies LoadOverrides whenever path is written, created or renamed
// into place. The parent directory is watched so editors that replace the file
// atomically are still seen. Blocks until ctx is done.
func (t *Table) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve overrides path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := t.LoadOverrides(abs); err != nil {
				slog.Warn("responses: reload overrides failed", "path", abs, "error", err)
				continue
			}
			slog.Info("responses: overrides reloaded", "path", abs)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("responses: watcher error", "error", err)
		}
	}
}
