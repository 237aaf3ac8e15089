// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"

	"github.com/jeranaias/vasi-tui/internal/model"
)

// DefaultNamespace qualifies every key this application writes.
const DefaultNamespace = "vasi"

// Key names inside the namespace.
const (
	KeyUser         = "user"
	KeySystemPrompt = "system_prompt"
	KeyChats        = "chats"
)

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository gives typed access to the three persisted values.
type Repository struct {
	backend   Backend
	namespace string
}

// NewRepository wraps a backend. An empty namespace means "vasi".
func NewRepository(backend Backend, namespace string) *Repository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Repository{backend: backend, namespace: namespace}
}

// Key returns the namespace-qualified storage key for name.
func (r *Repository) Key(name string) string {
	return r.namespace + "_" + name
}

// Backend returns the underlying backend.
func (r *Repository) Backend() Backend {
	return r.backend
}

// =============================================================================
// USER RECORD
// =============================================================================

// LoadUser returns the stored user, or nil when nobody is signed in.
func (r *Repository) LoadUser() (*model.User, error) {
	raw, ok, err := r.backend.Get(r.Key(KeyUser))
	if err != nil || !ok {
		return nil, err
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, &StorageError{Op: "load", Key: r.Key(KeyUser), Message: ErrCorrupt.Message, Cause: err}
	}
	if err := user.Validate(); err != nil {
		return nil, &StorageError{Op: "load", Key: r.Key(KeyUser), Message: ErrCorrupt.Message, Cause: err}
	}
	return &user, nil
}

// SaveUser stores the user record.
func (r *Repository) SaveUser(user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &StorageError{Op: "save", Key: r.Key(KeyUser), Message: "encode failed", Cause: err}
	}
	return r.backend.Set(r.Key(KeyUser), string(data))
}

// ClearUser removes the user record (sign out).
func (r *Repository) ClearUser() error {
	return r.backend.Delete(r.Key(KeyUser))
}

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

// LoadSystemPrompt returns the stored system prompt, or "".
func (r *Repository) LoadSystemPrompt() (string, error) {
	raw, _, err := r.backend.Get(r.Key(KeySystemPrompt))
	return raw, err
}

// SaveSystemPrompt stores the system prompt verbatim.
func (r *Repository) SaveSystemPrompt(prompt string) error {
	return r.backend.Set(r.Key(KeySystemPrompt), prompt)
}

// =============================================================================
// SESSION LIST
// =============================================================================

// LoadSessions returns the persisted session list, or nil if none.
// Messages with an unknown role are dropped so the rest of the history
// stays usable.
func (r *Repository) LoadSessions() ([]model.Session, error) {
	raw, ok, err := r.backend.Get(r.Key(KeyChats))
	if err != nil || !ok {
		return nil, err
	}
	var sessions []model.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, &StorageError{Op: "load", Key: r.Key(KeyChats), Message: ErrCorrupt.Message, Cause: err}
	}
	for i := range sessions {
		kept := sessions[i].Messages[:0]
		for _, msg := range sessions[i].Messages {
			if msg.Role.Valid() {
				kept = append(kept, msg)
			}
		}
		sessions[i].Messages = kept
		if sessions[i].Title == "" {
			sessions[i].Title = model.DeriveTitle(kept)
		}
	}
	return sessions, nil
}

// SaveSessions serializes the full session list.
func (r *Repository) SaveSessions(sessions []model.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return &StorageError{Op: "save", Key: r.Key(KeyChats), Message: "encode failed", Cause: err}
	}
	return r.backend.Set(r.Key(KeyChats), string(data))
}
