package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcphub/pkg/logging"
)

// Watcher reloads a configuration file when it changes on disk.
//
// It watches the file's directory rather than the file itself so editors that
// replace the file through a rename are picked up. Bursts of events are
// debounced into one reload. A file that fails to load is logged and ignored;
// the last good configuration stays in effect.
type Watcher struct {
	mu sync.Mutex

	// path is the absolute, cleaned path of the watched file
	path string

	// debounce is how long to wait for additional changes
	debounce time.Duration

	onChange func(*File)

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher for path that calls onChange with every
// successfully reloaded configuration.
func NewWatcher(path string, debounce time.Duration, onChange func(*File)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		path:     filepath.Clean(abs),
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Start begins watching. It returns once the watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true

	go w.processEvents(ctx, watcher, w.stopCh, w.done)

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.path)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		logging.Error("ConfigWatcher", err, "Ignoring invalid configuration change")
		return
	}

	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	logging.Info("ConfigWatcher", "Configuration changed, applying %d servers", len(f.Servers))
	w.onChange(f)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop ends watching and waits for the event loop to exit. A reload already
// running may still complete.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	watcher, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	<-done

	if err := watcher.Close(); err != nil {
		logging.Error("ConfigWatcher", err, "Error closing filesystem watcher")
		return err
	}
	logging.Info("ConfigWatcher", "Stopped watching %s", w.path)
	return nil
}
