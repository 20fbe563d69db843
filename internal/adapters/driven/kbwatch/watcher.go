// Package kbwatch reloads the knowledge base when its CURRENT pointer changes.
//
// The pointer is replaced by rename, which drops any watch on the file
// itself, so the watcher observes the containing directory and filters
// events by name. Bursts of events are debounced into one reload.
package kbwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sitesage/internal/logger"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc loads the newly published knowledge base.
type ReloadFunc func(ctx context.Context) error

// Watcher triggers a reload whenever the pointer file is created,
// written or renamed into place.
type Watcher struct {
	pointer  string
	reload   ReloadFunc
	debounce time.Duration

	// reloaded, when set, receives each reload result. Used by tests.
	reloaded chan<- error
}

// New creates a watcher for the pointer file at path.
func New(path string, reload ReloadFunc, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		pointer:  filepath.Clean(path),
		reload:   reload,
		debounce: debounce,
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation and
// an error only if watching could not start or the watcher failed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.pointer)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Debug("Watching %s for knowledge base swaps", w.pointer)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Pointer event: %s", event)
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Knowledge base watcher error: %v", err)

		case <-timer.C:
			err := w.reload(ctx)
			if err != nil {
				logger.Warn("Knowledge base reload failed, keeping previous: %v", err)
			}
			if w.reloaded != nil {
				select {
				case w.reloaded <- err:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.pointer {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
