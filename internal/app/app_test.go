// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/speech"
	"github.com/jeranaias/vasi-tui/internal/storage"
)

type silentSynth struct{}

func (silentSynth) Available() bool                           { return false }
func (silentSynth) Voices() ([]speech.Voice, error)           { return nil, nil }
func (silentSynth) Speak(speech.Utterance, func(error)) error { return speech.ErrUnsupported }
func (silentSynth) Cancel()                                   {}

type deafRecognizer struct{}

func (deafRecognizer) Available() bool { return false }
func (deafRecognizer) Start(speech.RecognitionOptions, speech.RecognitionEvents) (speech.Recognition, error) {
	return nil, speech.ErrUnsupported
}

type nopClipboard struct{ text string }

func (c *nopClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func newTestApp(t *testing.T, backend storage.Backend, cfg *config.Config) *App {
	t.Helper()
	a, err := New(Options{
		Config:      cfg,
		Backend:     backend,
		Synthesizer: silentSynth{},
		Recognizer:  deafRecognizer{},
		Clipboard:   &nopClipboard{},
	})
	require.NoError(t, err)
	return a
}

func TestNew_FreshStorage(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := newTestApp(t, backend, nil)

	assert.NoError(t, a.InitErr)
	assert.Nil(t, a.User())
	assert.Equal(t, 1, a.Sessions.Len())
	assert.Equal(t, "", a.Pipeline.SystemPrompt())
	assert.False(t, a.Speaker.Supported())
	assert.False(t, a.VoiceInput.Supported())
	assert.Equal(t, config.Default().API.BaseURL, a.Client.BaseURL())
}

func TestNew_RestoresSavedState(t *testing.T) {
	backend := storage.NewMemoryBackend()
	repo := storage.NewRepository(backend, storage.DefaultNamespace)
	require.NoError(t, repo.SaveUser(model.NewUser("Ada", "ada@example.com")))
	require.NoError(t, repo.SaveSystemPrompt("Be brief."))

	a := newTestApp(t, backend, nil)
	require.NotNil(t, a.User())
	assert.Equal(t, "Ada", a.User().Name)
	assert.Equal(t, "Be brief.", a.Pipeline.SystemPrompt())
}

func TestNew_CorruptConversationsKeepsRunning(t *testing.T) {
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set("vasi_chats", "{not json"))

	a := newTestApp(t, backend, nil)
	assert.Error(t, a.InitErr)
	assert.Equal(t, 1, a.Sessions.Len())

	raw, _, err := backend.Get("vasi_chats")
	require.NoError(t, err)
	assert.Equal(t, "{not json", raw)
}

func TestClose_KeepsUnreadableConversations(t *testing.T) {
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set("vasi_chats", "{not json"))

	a := newTestApp(t, backend, nil)
	require.Error(t, a.InitErr)
	err := a.Sessions.AppendMessage(a.Sessions.ActiveID(), model.NewUserMessage("hello"))
	require.Error(t, err, "writes are refused while the stored list is unreadable")
	assert.NoError(t, a.Close())

	raw, _, err := backend.Get("vasi_chats")
	require.NoError(t, err)
	assert.Equal(t, "{not json", raw)
}

func TestLoginLogout(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := newTestApp(t, backend, nil)

	_, err := a.RequireUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = a.Login("  ", "")
	assert.ErrorIs(t, err, model.ErrInvalidUser)

	user, err := a.Login("grace", "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "G", user.Avatar)
	require.NotNil(t, a.User())

	stored, err := a.Repo.LoadUser()
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	session, err := a.Sessions.CreateSession()
	require.NoError(t, err)

	require.NoError(t, a.Logout())
	assert.Nil(t, a.User())
	_, err = a.RequireUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, ok := a.Sessions.Session(session.ID)
	assert.True(t, ok, "conversations survive logout")
}

func TestSetSystemPrompt(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryBackend(), nil)

	require.NoError(t, a.SetSystemPrompt("Answer in French."))
	assert.Equal(t, "Answer in French.", a.Pipeline.SystemPrompt())

	stored, err := a.Repo.LoadSystemPrompt()
	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", stored)

	require.NoError(t, a.SetSystemPrompt(""))
	assert.Equal(t, "", a.Pipeline.SystemPrompt())
}

func TestApplyExternalChange(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := newTestApp(t, backend, nil)
	other := storage.NewRepository(backend, storage.DefaultNamespace)

	require.NoError(t, other.SaveSystemPrompt("From elsewhere"))
	changed, err := a.ApplyExternalChange("vasi_system_prompt")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "From elsewhere", a.Pipeline.SystemPrompt())

	require.NoError(t, other.SaveUser(model.NewUser("Linus", "")))
	changed, err = a.ApplyExternalChange("vasi_user")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Linus", a.User().Name)

	s := model.NewSession()
	s.SetMessages([]model.Message{model.NewUserMessage("hello from another window")})
	require.NoError(t, other.SaveSessions([]model.Session{s}))
	changed, err = a.ApplyExternalChange("vasi_chats")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, a.Sessions.Len())
	assert.Equal(t, s.ID, a.Sessions.ActiveID())

	changed, err = a.ApplyExternalChange("unrelated")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyExternalChange_SkipsChatsWhileLoading(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := newTestApp(t, backend, nil)
	before := a.Sessions.ActiveID()

	_, err := a.Pipeline.Begin("hello", nil)
	require.NoError(t, err)
	require.True(t, a.Pipeline.Loading())

	other := storage.NewRepository(backend, storage.DefaultNamespace)
	require.NoError(t, other.SaveSessions([]model.Session{model.NewSession()}))

	changed, err := a.ApplyExternalChange("vasi_chats")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, a.Sessions.ActiveID())
}

func TestSendThroughConfiguredClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":   "hi there",
			"model_used": "test-model",
		})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	a := newTestApp(t, storage.NewMemoryBackend(), cfg)

	res, err := a.Pipeline.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.False(t, res.Failed())
	assert.Equal(t, "hi there", res.Reply.Text)

	msgs := a.Sessions.Messages(a.Sessions.ActiveID())
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", a.Sessions.Active().Title)
}

func TestWatch_NonFileBackendReturns(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryBackend(), nil)
	assert.NoError(t, a.Watch(context.Background(), func(string) {}))
}

func TestClose(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryBackend(), nil)
	assert.NoError(t, a.Close())
}
