// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/vasi-tui/internal/util"
)

const (
	// DefaultTitle is the title of a session whose first message has no text.
	DefaultTitle = "New Chat"

	// TitleMaxRunes bounds the title derived from the first message.
	TitleMaxRunes = 30
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one conversation thread. A session owns its messages
// exclusively; callers receive clones.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`

	// Timestamp is the creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewSession creates an empty session titled "New Chat".
func NewSession() Session {
	return Session{
		ID:        NewID(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		Timestamp: time.Now().UnixMilli(),
	}
}

// CreatedAt returns the creation time.
func (s Session) CreatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// DeriveTitle returns the title for a message sequence: the first message's
// text cut to 30 characters, or "New Chat" when there is no such text.
func DeriveTitle(messages []Message) string {
	if len(messages) == 0 || messages[0].Text == "" {
		return DefaultTitle
	}
	return util.TruncateRunesNoEllipsis(messages[0].Text, TitleMaxRunes)
}

// SetMessages replaces the message sequence and recomputes the title.
func (s *Session) SetMessages(messages []Message) {
	s.Messages = cloneMessages(messages)
	s.Title = DeriveTitle(s.Messages)
}

// IndexOf returns the position of the message with the given ID, or -1.
func (s Session) IndexOf(id string) int {
	for i, msg := range s.Messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// IsEmpty returns true if there are no messages.
func (s Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Preview returns the first user message cut for list display.
func (s Session) Preview(maxRunes int) string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser && msg.Text != "" {
			return util.TruncateRunes(msg.Text, maxRunes)
		}
	}
	return ""
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Messages = cloneMessages(s.Messages)
	return out
}

// CloneSessions deep-copies a session list.
func CloneSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}

func cloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
