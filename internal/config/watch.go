package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDelay = 200 * time.Millisecond

// Watcher reports changes of the config file on disk. The compiled rule table
// is never swapped at runtime; the callback decides what a change means
// (log a hint, or shut down so a supervisor restarts with the new rules).
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(path string)
	log      zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	timer    *time.Timer
	mu       sync.Mutex
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, log zerolog.Logger, onChange func(path string)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the file
// itself so editors that replace the file on save are still seen.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.handleEvent()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Config watcher error")
		}
	}
}

// handleEvent coalesces bursts of events into one callback.
func (w *Watcher) handleEvent() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		w.log.Debug().Str("path", w.path).Msg("Config file changed")
		if w.onChange != nil {
			w.onChange(w.path)
		}
	})
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
