// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client-side persistence for vasi.
//
// Storage is a flat map of namespace-qualified string keys, the same shape
// as browser local storage. Three values live there: the signed-in user
// record, the custom system prompt and the serialized session list.
//
// # Key Types
//
//   - Backend: get/set/delete of string values by key
//   - FileBackend: one file per key, written atomically
//   - SQLiteBackend: a single kv table in a SQLite database
//   - MemoryBackend: in-process map, used by tests
//   - Repository: typed access to the user, system prompt and session keys
//   - Watcher: reports keys changed on disk by another process
//
// # Usage
//
//	backend, err := storage.NewFileBackend(dir)
//	repo := storage.NewRepository(backend, "vasi")
//	sessions, err := repo.LoadSessions()
package storage
