// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TITLE TESTS
// =============================================================================

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     string
	}{
		{"no messages", nil, DefaultTitle},
		{"short first message", []Message{NewUserMessage("hello")}, "hello"},
		{"long first message", []Message{NewUserMessage(strings.Repeat("a", 45))}, strings.Repeat("a", 30)},
		{"empty first text", []Message{NewUserMessage(""), NewAssistantMessage("reply")}, DefaultTitle},
		{"only first message counts", []Message{NewUserMessage("first"), NewUserMessage("second")}, "first"},
		{"unicode counted by characters", []Message{NewUserMessage(strings.Repeat("é", 40))}, strings.Repeat("é", 30)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveTitle(tc.messages))
		})
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession()

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, DefaultTitle, s.Title)
	assert.Empty(t, s.Messages)
	assert.NotZero(t, s.Timestamp)
	assert.True(t, s.IsEmpty())
}

func TestSession_SetMessagesRecomputesTitle(t *testing.T) {
	s := NewSession()
	s.SetMessages([]Message{NewUserMessage("What is the capital of France and why?")})

	assert.Equal(t, "What is the capital of France ", s.Title)
	require.Len(t, s.Messages, 1)

	s.SetMessages(nil)
	assert.Equal(t, DefaultTitle, s.Title)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession()
	msg := NewAssistantMessage("answer")
	msg.Reasoning = []string{"step one"}
	msg.FileInfo = &FileInfo{Filename: "a.pdf", Type: "pdf"}
	s.SetMessages([]Message{msg})

	c := s.Clone()
	c.Messages[0].Text = "changed"
	c.Messages[0].Reasoning[0] = "changed"
	c.Messages[0].FileInfo.Filename = "changed"

	assert.Equal(t, "answer", s.Messages[0].Text)
	assert.Equal(t, "step one", s.Messages[0].Reasoning[0])
	assert.Equal(t, "a.pdf", s.Messages[0].FileInfo.Filename)
}

func TestSession_IndexOfAndPreview(t *testing.T) {
	s := NewSession()
	a := NewAssistantMessage("hi")
	u := NewUserMessage("a question that is quite long indeed")
	s.SetMessages([]Message{a, u})

	assert.Equal(t, 1, s.IndexOf(u.ID))
	assert.Equal(t, -1, s.IndexOf("missing"))
	assert.Equal(t, "a question...", s.Preview(13))
}

// =============================================================================
// IDENTIFIER TESTS
// =============================================================================

func TestNewID_UniqueAndOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		require.NotEqual(t, prev, next)
		assert.True(t, next > prev, "ids should sort in creation order")
		prev = next
	}
}

// =============================================================================
// ROLE AND USER TESTS
// =============================================================================

func TestRoleLabels(t *testing.T) {
	assert.Equal(t, "User", RoleUser.ContextLabel())
	assert.Equal(t, "AI", RoleAssistant.ContextLabel())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("system").Valid())
}

func TestNewUser(t *testing.T) {
	u := NewUser("  ada lovelace ", "ada@example.com")

	assert.Equal(t, "ada lovelace", u.Name)
	assert.Equal(t, "A", u.Avatar)
	assert.NotEmpty(t, u.ID)
	assert.NoError(t, u.Validate())
}

func TestUser_Validate(t *testing.T) {
	assert.True(t, errors.Is(User{}.Validate(), ErrInvalidUser))
	assert.True(t, errors.Is(User{Name: "x", Email: "nope"}.Validate(), ErrInvalidUser))
	assert.NoError(t, User{Name: "x"}.Validate())
}
