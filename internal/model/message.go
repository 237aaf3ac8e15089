// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ContextLabel returns the label used for the role in the history context
// sent to the assistant endpoint.
func (r Role) ContextLabel() string {
	if r == RoleUser {
		return "User"
	}
	return "AI"
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Vasi"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// FileInfo describes a document that accompanied a turn.
type FileInfo struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Summary  string `json:"summary,omitempty"`
}

// Message represents a single turn in a session.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. Mutable only through edit-and-regenerate.
	Text string `json:"text"`

	// Assistant metadata
	Reasoning []string  `json:"reasoning,omitempty"`
	ModelUsed string    `json:"model_used,omitempty"`
	FileInfo  *FileInfo `json:"file_info,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, text)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, text)
}

// HasReasoning reports whether the message carries a reasoning trace.
func (m Message) HasReasoning() bool {
	return len(m.Reasoning) > 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Reasoning != nil {
		out.Reasoning = append([]string(nil), m.Reasoning...)
	}
	if m.FileInfo != nil {
		fi := *m.FileInfo
		out.FileInfo = &fi
	}
	return out
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// NewID returns a time-ordered unique identifier (UUIDv7).
// Two IDs minted in the same millisecond still differ and still sort
// in creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
