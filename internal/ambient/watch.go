package ambient

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile loads the host page at path into doc and reloads it whenever the
// file is written or replaced. It blocks until ctx is cancelled. The parent
// directory is watched rather than the file itself so that editors which
// save through a rename keep being tracked.
func WatchFile(ctx context.Context, path string, doc *Document, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("ambient: resolve host page path: %w", err)
	}
	if err := doc.Load(abs); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ambient: create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("ambient: watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching host page", "path", abs)

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
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := doc.Load(abs); err != nil {
				logger.Warn("host page reload failed", "path", abs, "error", err)
				continue
			}
			root, body := doc.Classes()
			logger.Debug("host page reloaded", "root", root, "body", body)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("host page watcher error", "error", err)
		}
	}
}
