// Package watch emits edit notifications for the active sheet file.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SheetWatcher watches the sheet file for edits. It watches the containing
// directory rather than the file itself, because most editors save by
// writing a temp file and renaming it over the original, which would
// otherwise drop the watch.
type SheetWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	base    string

	edits  chan struct{}
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewSheetWatcher creates a watcher for the sheet at path. The watcher must
// be started with Start() before it emits notifications.
func NewSheetWatcher(path string) (*SheetWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sheet path %s: %w", path, err)
	}

	return &SheetWatcher{
		watcher: watcher,
		path:    abs,
		base:    filepath.Base(abs),
		edits:   make(chan struct{}, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the sheet's directory.
func (w *SheetWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (w *SheetWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()
	close(w.edits)
	close(w.errors)
	return nil
}

// Edits returns the channel that emits a value per observed sheet edit.
// Closed when the watcher is stopped.
func (w *SheetWatcher) Edits() <-chan struct{} {
	return w.edits
}

// Errors returns the channel that emits watcher errors. Closed when the
// watcher is stopped.
func (w *SheetWatcher) Errors() <-chan error {
	return w.errors
}

// IsRunning reports whether the watcher is active.
func (w *SheetWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SheetWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isSheetEdit(event) {
				continue
			}
			select {
			case w.edits <- struct{}{}:
			case <-w.done:
				return
			default:
				// A full queue means a burst is already pending; the
				// debouncer collapses it anyway.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// isSheetEdit filters directory events down to writes, creates, and renames
// of the watched sheet file.
func (w *SheetWatcher) isSheetEdit(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.base {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
