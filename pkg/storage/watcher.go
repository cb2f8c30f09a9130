package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// CacheWatcher watches the port cache file and notifies a callback when
// another process updates or clears the cached port.
//
// Rapid successive writes are debounced so a discovery run that clears
// and immediately rewrites the cache produces a single notification.
type CacheWatcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange func(*CachedPort)

	// debounceDelay is the time to wait before notifying after a change
	debounceDelay time.Duration

	logger zerolog.Logger

	// mu protects the debounce timer
	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewCacheWatcher creates a watcher over the store's cache file. onChange
// receives the freshly loaded entry, or nil when the cache was cleared.
func NewCacheWatcher(store *FileStore, onChange func(*CachedPort), logger zerolog.Logger) (*CacheWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &CacheWatcher{
		store:         store,
		watcher:       watcher,
		onChange:      onChange,
		debounceDelay: 100 * time.Millisecond,
		logger:        logger.With().Str("component", "storage.watcher").Logger(),
	}, nil
}

// Start begins watching and blocks until the context is canceled:
//
//	go watcher.Start(ctx)
func (w *CacheWatcher) Start(ctx context.Context) error {
	// fsnotify requires watching directories, not files directly
	cacheDir := filepath.Dir(w.store.Path())
	cacheFile := filepath.Base(w.store.Path())

	if err := w.watcher.Add(cacheDir); err != nil {
		w.logger.Error().Err(err).Str("dir", cacheDir).Msg("Failed to watch cache directory")
		return err
	}

	w.logger.Info().
		Str("file", w.store.Path()).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching port cache")

	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching port cache")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Ignore other files sharing the cache directory, including
			// the temp files our own atomic writes create.
			if filepath.Base(event.Name) != cacheFile {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected port cache change")
				w.scheduleNotify()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// scheduleNotify arms (or re-arms) the debounce timer.
func (w *CacheWatcher) scheduleNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		entry, err := w.store.load()
		if err != nil && !IsNotFound(err) {
			w.logger.Error().Err(err).Msg("Failed to reload port cache")
			return
		}
		if w.onChange != nil {
			w.onChange(entry)
		}
	})
}

// Close stops the watcher and releases resources.
func (w *CacheWatcher) Close() error {
	return w.watcher.Close()
}
