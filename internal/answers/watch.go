package answers

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce coalesces the burst of events editors emit on save.
const debounce = 250 * time.Millisecond

// Watch reloads the resolver whenever the answers file changes, until ctx is
// cancelled. The directory is watched rather than the file itself because
// most editors replace the file on save. A reload that fails to parse is
// logged and skipped; the resolver keeps the last good table.
func Watch(ctx context.Context, path string, resolver *Resolver, log *zap.SugaredLogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	var timer *time.Timer
	var timerC <-chan time.Time

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
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			table, err := Load(path)
			if err != nil {
				log.Warnw("Answers file changed but failed to load; keeping previous table",
					"path", path, "error", err)
				continue
			}
			resolver.Reload(table)
			log.Infow("Answers table reloaded", "path", path, "entries", len(table.Entries))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("Answers watcher error", "error", err)
		}
	}
}
