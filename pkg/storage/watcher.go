package storage

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reports changes made to one FileBackend entry, including writes by
// other processes sharing the directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	target   string
	onChange func()
	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches the entry for key in backend and calls onChange after
// writes or removals settle.
func NewWatcher(logger zerolog.Logger, backend *FileBackend, key string, onChange func()) (*Watcher, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Renames replace the file, so the directory is watched rather than the file.
	if err := watcher.Add(backend.Dir()); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		logger:   logger.With().Str("component", "storage-watcher").Logger(),
		target:   filepath.Base(backend.PathFor(key)),
		onChange: onChange,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// Stop stops the watcher
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

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != w.target {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("file", w.target).
					Str("op", event.Op.String()).
					Msg("Storage entry change detected")

				w.scheduleChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Storage watcher error")

		case <-w.stopCh:
			return
		}
	}
}

// scheduleChange debounces bursts of events from a single write
func (w *Watcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		w.onChange()
	})
}
