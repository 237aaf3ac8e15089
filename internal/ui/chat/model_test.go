// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/speech"
	"github.com/jeranaias/vasi-tui/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (f *fakeSynth) Available() bool                 { return true }
func (f *fakeSynth) Voices() ([]speech.Voice, error) { return nil, nil }
func (f *fakeSynth) Cancel()                         {}

func (f *fakeSynth) Speak(u speech.Utterance, _ func(error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u.Text)
	return nil
}

type noRecognizer struct{}

func (noRecognizer) Available() bool { return false }
func (noRecognizer) Start(speech.RecognitionOptions, speech.RecognitionEvents) (speech.Recognition, error) {
	return nil, speech.ErrUnsupported
}

type memClipboard struct{ text string }

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type harness struct {
	app       *app.App
	backend   *storage.MemoryBackend
	synth     *fakeSynth
	clipboard *memClipboard
}

func replyWith(text string, extra map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"response": text}
		for k, v := range extra {
			body[k] = v
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

func newHarness(t *testing.T, handler http.HandlerFunc, loggedIn bool) (*harness, Model) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.UI.Theme = "dark"
	cfg.UI.ShowReasoning = false

	h := &harness{
		backend:   storage.NewMemoryBackend(),
		synth:     &fakeSynth{},
		clipboard: &memClipboard{},
	}
	if loggedIn {
		repo := storage.NewRepository(h.backend, storage.DefaultNamespace)
		require.NoError(t, repo.SaveUser(model.NewUser("Ada", "ada@example.com")))
	}

	a, err := app.New(app.Options{
		Config:      cfg,
		Backend:     h.backend,
		Synthesizer: h.synth,
		Recognizer:  noRecognizer{},
		Clipboard:   h.clipboard,
	})
	require.NoError(t, err)
	h.app = a

	m := New(a)
	m = step(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, m
}

func step(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func stepCmd(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	up    = tea.KeyMsg{Type: tea.KeyUp}
)

// collect runs cmd and any batched children, dropping commands that do not
// finish quickly (ticks and the event pump).
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(2 * time.Second):
		return nil
	}
}

func responseIn(t *testing.T, msgs []tea.Msg) ResponseMsg {
	t.Helper()
	for _, msg := range msgs {
		if r, ok := msg.(ResponseMsg); ok {
			return r
		}
	}
	t.Fatal("no ResponseMsg produced")
	return ResponseMsg{}
}

// send types text, presses enter and delivers the reply.
func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := stepCmd(m, enter)
	return step(m, responseIn(t, collect(cmd)))
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin_FormCreatesUser(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), false)
	require.True(t, m.OnLoginScreen())
	assert.Contains(t, m.View(), "Welcome to Vasi")

	m = step(m, enter)
	m = step(m, enter)
	assert.True(t, m.OnLoginScreen(), "empty name is rejected")
	assert.NotEmpty(t, m.login.err)

	m.login.setFocus(0)
	m.login.name.SetValue("grace")
	m = step(m, enter)
	assert.Equal(t, 1, m.login.focus)
	m = step(m, enter)

	assert.False(t, m.OnLoginScreen())
	require.NotNil(t, h.app.User())
	assert.Equal(t, "grace", h.app.User().Name)
	assert.Contains(t, m.View(), "grace")
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), true)
	m.input.SetValue("/logout")
	m = step(m, enter)

	assert.True(t, m.OnLoginScreen())
	assert.Nil(t, h.app.User())
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_ShowsUserTurnThenReply(t *testing.T) {
	h, m := newHarness(t, replyWith("Hello **there**", map[string]any{
		"model_used": "vasi-large",
		"reasoning":  []string{"greet back"},
	}), true)

	m.input.SetValue("hello")
	m, cmd := stepCmd(m, enter)
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.input.Value())
	assert.True(t, h.app.Pipeline.Loading())
	assert.Len(t, m.messages(), 1)
	assert.Contains(t, m.viewport.View(), "thinking")

	m = step(m, responseIn(t, collect(cmd)))
	assert.False(t, h.app.Pipeline.Loading())

	msgs := m.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "vasi-large", msgs[1].ModelUsed)
	assert.Equal(t, "hello", h.app.Sessions.Active().Title)

	view := m.viewport.View()
	assert.Contains(t, view, "vasi-large")
	assert.Contains(t, view, "Reasoning (1 steps)")
}

func TestSend_EmptyInputIsIgnored(t *testing.T) {
	_, m := newHarness(t, replyWith("hi", nil), true)
	m.input.SetValue("   ")
	m, cmd := stepCmd(m, enter)
	assert.Nil(t, cmd)
	assert.Empty(t, m.messages())
	assert.Empty(t, m.Notice())
}

func TestSend_WhileLoadingIsIgnored(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), true)
	m.input.SetValue("first")
	m, _ = stepCmd(m, enter)

	m.input.SetValue("second")
	m, cmd := stepCmd(m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.input.Value())
	assert.Len(t, h.app.Sessions.Messages(h.app.Sessions.ActiveID()), 1)
}

func TestSend_FailureAppendsErrorReply(t *testing.T) {
	_, m := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"down"}`, http.StatusInternalServerError)
	}, true)

	m = send(t, m, "hello")
	msgs := m.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, pipeline.ErrorReply, msgs[1].Text)
}

func TestSend_ImageKeywordTurnsOnImageMode(t *testing.T) {
	var got map[string]any
	h, m := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "![a cat](http://img/cat.png)"})
	}, true)

	m.input.SetValue("draw a cat")
	m, cmd := stepCmd(m, enter)
	assert.True(t, h.app.Pipeline.ImageMode())
	assert.Contains(t, m.Notice(), "Image mode on")

	m = step(m, responseIn(t, collect(cmd)))
	assert.Equal(t, "image of draw a cat", got["message"])
	assert.Contains(t, m.viewport.View(), "http://img/cat.png")

	m = step(m, tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.False(t, h.app.Pipeline.ImageMode())
}

func TestSend_ReplyLandsInOriginSession(t *testing.T) {
	h, m := newHarness(t, replyWith("late reply", nil), true)
	origin := h.app.Sessions.ActiveID()

	m.input.SetValue("question")
	m, cmd := stepCmd(m, enter)
	m = step(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotEqual(t, origin, h.app.Sessions.ActiveID())

	m = step(m, responseIn(t, collect(cmd)))
	assert.Empty(t, m.messages())
	assert.Len(t, h.app.Sessions.Messages(origin), 2)
}

func TestSend_AttachmentKeptOnFailureClearedOnSuccess(t *testing.T) {
	fail := true
	var mu sync.Mutex
	_, m := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "/api/chat-with-document", r.URL.Path)
		assert.Equal(t, "Analyze this document", r.FormValue("message"))
		if fail {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":      "It is a note.",
			"document_info": map[string]any{"filename": "note.txt", "type": "text", "summary": "short"},
		})
	}, true)

	m.attachment = pipeline.AttachBytes("note.txt", []byte("remember milk"))
	m = send(t, m, "")
	assert.NotNil(t, m.attachment, "kept after failure")

	mu.Lock()
	fail = false
	mu.Unlock()
	m = send(t, m, "")
	assert.Nil(t, m.attachment)
	assert.Contains(t, m.viewport.View(), "note.txt")
}

// =============================================================================
// SELECTION MODE
// =============================================================================

func TestEdit_RegeneratesFromEditedMessage(t *testing.T) {
	var prompts []string
	var mu sync.Mutex
	h, m := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		prompts = append(prompts, body["message"].(string))
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "answer to " + body["message"].(string)})
	}, true)

	m = send(t, m, "first")
	m = send(t, m, "second")
	require.Len(t, m.messages(), 4)

	m = step(m, tab)
	require.True(t, m.Selecting())
	assert.Equal(t, 3, m.cursor)

	m = step(m, runes("e"))
	assert.Empty(t, m.EditingID(), "assistant replies are not editable")

	m = step(m, up)
	m = step(m, up)
	m = step(m, up)
	m = step(m, runes("e"))
	require.Equal(t, m.messages()[0].ID, m.EditingID())
	assert.Equal(t, "first", m.input.Value())
	assert.False(t, m.Selecting())

	m.input.SetValue("first, revised")
	m, cmd := stepCmd(m, enter)
	m = step(m, responseIn(t, collect(cmd)))

	msgs := h.app.Sessions.Messages(h.app.Sessions.ActiveID())
	require.Len(t, msgs, 2)
	assert.Equal(t, "first, revised", msgs[0].Text)
	assert.Equal(t, "answer to first, revised", msgs[1].Text)
	assert.Empty(t, m.EditingID())
	assert.Equal(t, "first, revised", h.app.Sessions.Active().Title)
}

func TestEdit_EscCancels(t *testing.T) {
	_, m := newHarness(t, replyWith("ok", nil), true)
	m = send(t, m, "hello")

	m = step(m, tab)
	m = step(m, up)
	m = step(m, runes("e"))
	require.NotEmpty(t, m.EditingID())

	m = step(m, esc)
	assert.Empty(t, m.EditingID())
	assert.Equal(t, "", m.input.Value())
}

func TestSpeak_TogglesPerMessage(t *testing.T) {
	h, m := newHarness(t, replyWith("Read `this` aloud", nil), true)
	m = send(t, m, "hello")

	m = step(m, tab)
	m = step(m, runes("s"))
	reply := m.messages()[1]
	assert.Equal(t, reply.ID, m.speakingID)
	assert.Equal(t, []string{"Read this aloud"}, h.synth.spoken)
	assert.Contains(t, m.View(), "SPEAKING")

	m = step(m, runes("s"))
	assert.Empty(t, m.speakingID)
	assert.Empty(t, h.app.Speaker.SpeakingID())
}

func TestReasoning_Toggle(t *testing.T) {
	_, m := newHarness(t, replyWith("done", map[string]any{"reasoning": []string{"step one", "step two"}}), true)
	m = send(t, m, "think")

	assert.NotContains(t, m.viewport.View(), "step one")
	m = step(m, tab)
	m = step(m, runes("r"))
	assert.Contains(t, m.viewport.View(), "1. step one")
	m = step(m, runes("r"))
	assert.NotContains(t, m.viewport.View(), "1. step one")
}

func TestCopyCode(t *testing.T) {
	h, m := newHarness(t, replyWith("Try:\n```go\nfmt.Println(1)\n```\nand\n```sh\necho hi\n```", nil), true)
	m = send(t, m, "code please")

	m = step(m, tab)
	m = step(m, runes("y"))
	assert.Equal(t, "fmt.Println(1)", h.clipboard.text)
	assert.Contains(t, m.Notice(), "Copied go block")

	m = step(m, runes("2"))
	assert.Equal(t, "echo hi", h.clipboard.text)

	m = step(m, runes("5"))
	assert.Contains(t, m.Notice(), "No code block 5")
}

func TestVoice_UnsupportedShowsNotice(t *testing.T) {
	_, m := newHarness(t, replyWith("hi", nil), true)
	m = step(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Contains(t, m.Notice(), "Speech recognition is not available")
	assert.False(t, m.listening)
}

func TestVoice_TranscriptFillsInput(t *testing.T) {
	_, m := newHarness(t, replyWith("hi", nil), true)
	m = step(m, VoiceStateMsg{Listening: true})
	m = step(m, VoiceTextMsg{Text: "hello there"})
	assert.Equal(t, "hello there", m.input.Value())
	assert.Contains(t, m.View(), "LISTENING")
}

// =============================================================================
// SESSIONS AND COMMANDS
// =============================================================================

func TestSessions_NewAndSwitch(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), true)
	m = send(t, m, "in the first chat")
	first := h.app.Sessions.ActiveID()

	m = step(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, 2, h.app.Sessions.Len())
	assert.Empty(t, m.messages())

	m = step(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j"), Alt: true})
	assert.Equal(t, first, h.app.Sessions.ActiveID())
	assert.Len(t, m.messages(), 2)

	m.input.SetValue("/load 1")
	m = step(m, enter)
	assert.NotEqual(t, first, h.app.Sessions.ActiveID())

	m.input.SetValue("/load 9")
	m = step(m, enter)
	assert.Contains(t, m.Notice(), "Usage: /load")
}

func TestCommands(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), true)

	m.input.SetValue("/prompt Answer like a pirate.")
	m = step(m, enter)
	assert.Equal(t, "Answer like a pirate.", h.app.Pipeline.SystemPrompt())

	m.input.SetValue("/prompt")
	m = step(m, enter)
	assert.Contains(t, m.Notice(), "pirate")

	m.input.SetValue("/prompt clear")
	m = step(m, enter)
	assert.Equal(t, "", h.app.Pipeline.SystemPrompt())

	m.input.SetValue("/image")
	m = step(m, enter)
	assert.True(t, h.app.Pipeline.ImageMode())

	m.input.SetValue("/attach /definitely/missing.pdf")
	m = step(m, enter)
	assert.Contains(t, m.Notice(), "Cannot attach")
	assert.Nil(t, m.attachment)

	m.input.SetValue("/bogus")
	m = step(m, enter)
	assert.Contains(t, m.Notice(), "Unknown command /bogus")

	m.input.SetValue("/sessions")
	m = step(m, enter)
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Sessions:")
	m = step(m, esc)
	assert.False(t, m.showHelp)

	wasDark := m.theme.IsDark
	m.input.SetValue("/theme")
	m = step(m, enter)
	assert.NotEqual(t, wasDark, m.theme.IsDark)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want command
		ok   bool
	}{
		{"/new", command{Name: "new"}, true},
		{"  /LOAD 3 ", command{Name: "load", Arg: "3"}, true},
		{"/attach ~/My Docs/a.pdf", command{Name: "attach", Arg: "~/My Docs/a.pdf"}, true},
		{"hello /new", command{}, false},
		{"/new\nmore", command{}, false},
	}
	for _, tc := range tests {
		got, ok := parseCommand(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestCodeIndex(t *testing.T) {
	assert.Equal(t, 0, codeIndex("y"))
	assert.Equal(t, 0, codeIndex("1"))
	assert.Equal(t, 8, codeIndex("9"))
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

func TestStorageChanged_ReloadsSessions(t *testing.T) {
	h, m := newHarness(t, replyWith("hi", nil), true)
	other := storage.NewRepository(h.backend, storage.DefaultNamespace)

	s := model.NewSession()
	s.SetMessages([]model.Message{model.NewUserMessage("from another window")})
	require.NoError(t, other.SaveSessions([]model.Session{s}))

	m = step(m, StorageChangedMsg{Key: "vasi_chats"})
	assert.Equal(t, s.ID, h.app.Sessions.ActiveID())
	assert.True(t, strings.Contains(m.viewport.View(), "from another window"))

	require.NoError(t, other.ClearUser())
	m = step(m, StorageChangedMsg{Key: "vasi_user"})
	assert.True(t, m.OnLoginScreen())
}
