package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle before re-importing.
const DefaultDebounce = 2 * time.Second

// Watch re-imports path whenever it is written, created or renamed into place, and calls
// onImported after each successful import. It watches the parent directory so that files
// replaced by rename are picked up. Watch blocks until ctx is cancelled.
func (bi *BulkImporter) Watch(ctx context.Context, path string, debounce time.Duration, onImported func(*ImportStats)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	logger := bi.options.Logger
	logger.Info("watching bulk file", "path", target)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("bulk file changed", "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)

		case <-timer.C:
			stats, err := bi.ImportFile(ctx, target)
			if err != nil {
				logger.Error("bulk re-import failed", "path", target, "error", err)
				continue
			}
			if onImported != nil {
				onImported(stats)
			}
		}
	}
}
