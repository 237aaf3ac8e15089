// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events an atomic rename makes.
const DefaultWatchDebounce = 200 * time.Millisecond

// =============================================================================
// WATCHER
// =============================================================================

// Watcher reports keys of a FileBackend that another process changed.
// Writes made through the same FileBackend are not reported.
type Watcher struct {
	backend  *FileBackend
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a watcher over the backend's directory.
func NewWatcher(backend *FileBackend, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &StorageError{Op: "watch", Key: backend.BaseDir, Message: "could not create watcher", Cause: err}
	}
	if err := fw.Add(backend.BaseDir); err != nil {
		fw.Close()
		return nil, &StorageError{Op: "watch", Key: backend.BaseDir, Message: "could not watch directory", Cause: err}
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		backend:  backend,
		watcher:  fw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run delivers changed keys to onChange until ctx is cancelled or the
// watcher is closed. It blocks; run it on its own goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(key string)) {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			key, ok := w.backend.keyFromPath(event.Name)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.pending[key] = time.Now()
			w.mu.Unlock()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case now := <-ticker.C:
			for _, key := range w.due(now) {
				value, _, err := w.backend.Get(key)
				if err == nil && w.backend.isOwnWrite(key, value) {
					continue
				}
				onChange(key)
			}
		}
	}
}

// due pops the keys whose last event is older than the debounce window.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var keys []string
	for key, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			keys = append(keys, key)
			delete(w.pending, key)
		}
	}
	return keys
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
