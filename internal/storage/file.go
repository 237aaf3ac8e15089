// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as <BaseDir>/<key>.json.
type FileBackend struct {
	// BaseDir is the directory holding the key files
	// Default: ~/.vasi/data/
	BaseDir string

	mu sync.Mutex
	// lastWritten remembers our own writes so the watcher can skip them
	lastWritten map[string]string
}

// NewFileBackend creates a file backend, creating baseDir if needed.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, &StorageError{Op: "open", Message: "could not determine home directory", Cause: err}
		}
		baseDir = filepath.Join(homeDir, ".vasi", "data")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, &StorageError{Op: "open", Key: baseDir, Message: "could not create data directory", Cause: err}
	}

	return &FileBackend{
		BaseDir:     baseDir,
		lastWritten: make(map[string]string),
	}, nil
}

// Get implements Backend.
func (f *FileBackend) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &StorageError{Op: "get", Key: key, Message: "read failed", Cause: err}
	}
	return string(data), true, nil
}

// Set implements Backend.
func (f *FileBackend) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := util.AtomicWriteFileWithDir(f.filePath(key), []byte(value), 0600, 0700); err != nil {
		return &StorageError{Op: "set", Key: key, Message: "write failed", Cause: err}
	}
	f.lastWritten[key] = value
	return nil
}

// Delete implements Backend.
func (f *FileBackend) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.lastWritten, key)
	if err := os.Remove(f.filePath(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", Key: key, Message: "remove failed", Cause: err}
	}
	return nil
}

// Close implements Backend.
func (f *FileBackend) Close() error { return nil }

// isOwnWrite reports whether value is what this process last wrote to key.
func (f *FileBackend) isOwnWrite(key, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	last, ok := f.lastWritten[key]
	return ok && last == value
}

// filePath returns the file path for a key.
func (f *FileBackend) filePath(key string) string {
	return filepath.Join(f.BaseDir, key+".json")
}

// keyFromPath is the inverse of filePath; ok is false for foreign files.
func (f *FileBackend) keyFromPath(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(f.BaseDir) {
		return "", false
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
