package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch runs the file once and again after every change to it, until ctx
// is done. Each run's result goes to onRun; a failing run does not stop
// the watch.
func (r *Runner) Watch(ctx context.Context, path string, onRun func(error)) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	// editors often replace a file rather than write it, so watch its
	// directory and filter by name
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	r.logger.Info("watching", slog.String("file", path))

	onRun(r.RunFile(ctx, path))

	// a save usually arrives as several events; run once they settle
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			r.logger.Debug("file changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			settle = time.After(watchDebounce)

		case <-settle:
			settle = nil
			onRun(r.RunFile(ctx, path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}
