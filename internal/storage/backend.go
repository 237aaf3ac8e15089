// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "strings"

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is the persistence port. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key
	// has never been written or was deleted.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open creates the backend of the given kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindSQLite:
		return NewSQLiteBackend(dir)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, &StorageError{Op: "open", Key: kind, Message: "unknown storage backend"}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrCorrupt is returned when a stored value cannot be decoded.
// Use errors.Is(err, ErrCorrupt) to check for this error.
var ErrCorrupt = &StorageError{Message: "stored value is corrupt"}

// StorageError represents a storage-related error.
type StorageError struct {
	Op      string
	Key     string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + " " + e.Key + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support by comparing messages.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
