package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// reloadDelay collapses the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the catalog at path whenever it is written and sends each
// successfully parsed version on the returned channel. The channel is closed
// when ctx is done. Files that fail to parse are logged and skipped.
func Watch(ctx context.Context, path string) (<-chan []Sound, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("fsnotify watching catalog", "file", abs)

	out := make(chan []Sound)
	go func() {
		defer close(out)
		defer watcher.Close()

		var (
			timer  *time.Timer
			reload <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				if timer == nil {
					timer = time.NewTimer(reloadDelay)
				} else {
					timer.Reset(reloadDelay)
				}
				reload = timer.C

			case <-reload:
				reload = nil
				sounds, err := Load(abs)
				if err != nil {
					log.Warn("Ignoring unreadable catalog", "file", abs, "error", err)
					continue
				}
				if err := Validate(sounds); err != nil {
					log.Warn("Catalog has problems", "file", abs, "error", err)
				}
				select {
				case out <- sounds:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("fsnotify error", "dir", dir, "error", err)
			}
		}
	}()

	return out, nil
}
