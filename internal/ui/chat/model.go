// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/session"
	"github.com/jeranaias/vasi-tui/internal/speech"
	"github.com/jeranaias/vasi-tui/internal/ui/styles"
)

// noticeTimeout is how long a notice stays visible.
const noticeTimeout = 5 * time.Second

// eventBuffer sizes the channel that carries callbacks from speech engines
// and the storage watcher into the update loop.
const eventBuffer = 64

// =============================================================================
// CHAT MODEL
// =============================================================================

type screen int

const (
	screenLogin screen = iota
	screenChat
)

// helpTopic selects the overlay shown while showHelp is set.
type helpTopic int

const (
	helpKeys helpTopic = iota
	helpSessions
)

// Model is the Bubble Tea model for the whole terminal interface.
type Model struct {
	app   *app.App
	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	screen screen
	width  int
	height int

	login loginForm

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// Queued document for the next send. Kept after a failed request.
	attachment *pipeline.Attachment
	// Message being edited, empty when composing a new one.
	editingID string
	// Session awaiting a reply.
	pendingSession string

	selecting bool
	cursor    int

	reasoningOpen map[string]bool

	notice    string
	noticeErr bool
	noticeSeq int

	showHelp   bool
	helpTopic  helpTopic
	speakingID string
	listening  bool

	events chan tea.Msg
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the model over the application services.
func New(a *app.App) Model {
	ctx, cancel := context.WithCancel(context.Background())

	theme := styles.NewTheme(a.Config.UI.Theme)

	input := textarea.New()
	input.Placeholder = "Message Vasi... (/help for commands)"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(3)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := Model{
		app:           a,
		theme:         theme,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		viewport:      viewport.New(80, 20),
		input:         input,
		spinner:       sp,
		reasoningOpen: make(map[string]bool),
		events:        make(chan tea.Msg, eventBuffer),
		ctx:           ctx,
		cancel:        cancel,
	}
	m.login = newLoginForm()

	if a.User() == nil {
		m.screen = screenLogin
		m.input.Blur()
	} else {
		m.screen = screenChat
	}

	a.VoiceInput.SetCallbacks(
		func(text string) { m.emit(VoiceTextMsg{Text: text}) },
		func(listening bool) { m.emit(VoiceStateMsg{Listening: listening}) },
	)
	a.Speaker.SetStateCallback(func(id string) { m.emit(SpeechStateMsg{SpeakingID: id}) })

	if a.InitErr != nil {
		m.notice = "Saved conversations could not be read; changes will not be saved until storage recovers."
		m.noticeErr = true
	}

	m.setRenderer()
	m.refresh()
	return m
}

// Init starts the cursor blink, the event pump and the storage watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForEvent(), m.watch())
}

// Shutdown stops speech and the storage watcher.
func (m Model) Shutdown() {
	m.cancel()
	m.app.Speaker.Stop()
	m.app.VoiceInput.Stop()
}

// emit hands msg to the update loop without blocking the caller.
func (m Model) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		go func() { m.events <- msg }()
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) watch() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		go func() {
			if err := a.Watch(ctx, func(key string) { m.emit(StorageChangedMsg{Key: key}) }); err != nil {
				a.Logger.Warn("storage watcher unavailable", "err", err)
			}
		}()
		return nil
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.layout()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.setRenderer()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key := msg.String(); key == "ctrl+c" || key == "ctrl+q" {
			m.Shutdown()
			return m, tea.Quit
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ResponseMsg:
		return m.handleResponse(msg)

	case VoiceTextMsg:
		m.input.SetValue(msg.Text)
		m.input.CursorEnd()
		return m, m.waitForEvent()

	case VoiceStateMsg:
		m.listening = msg.Listening
		return m, m.waitForEvent()

	case SpeechStateMsg:
		m.speakingID = msg.SpeakingID
		m.refresh()
		return m, m.waitForEvent()

	case StorageChangedMsg:
		m.handleStorageChange(msg.Key)
		return m, m.waitForEvent()

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.app.Pipeline.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.screen == screenLogin {
		m.login, cmd = m.login.update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// handleResponse stores the reply in the session the request came from.
func (m Model) handleResponse(msg ResponseMsg) (Model, tea.Cmd) {
	result := m.app.Pipeline.Complete(msg.Request, msg.Response, msg.Err)
	m.pendingSession = ""
	if !result.Failed() && msg.Request.Attachment != nil && msg.Request.Attachment == m.attachment {
		m.attachment = nil
	}
	m.refresh()
	if result.SessionID == m.app.Sessions.ActiveID() {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// handleStorageChange applies a write made by another vasi process.
func (m *Model) handleStorageChange(key string) {
	changed, err := m.app.ApplyExternalChange(key)
	if err != nil {
		m.app.Logger.Warn("could not apply external change", "key", key, "err", err)
		return
	}
	if !changed {
		return
	}
	if m.app.User() == nil && m.screen == screenChat {
		m.toLogin()
	}
	m.clampCursor()
	m.refresh()
}

// =============================================================================
// ACTIONS
// =============================================================================

// execute runs the network half of req off the update loop.
func (m Model) execute(req *pipeline.Request) tea.Cmd {
	p, ctx := m.app.Pipeline, m.ctx
	return func() tea.Msg {
		resp, err := p.Execute(ctx, req)
		return ResponseMsg{Request: req, Response: resp, Err: err}
	}
}

// submit sends the input, or regenerates the message being edited.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	if cmd, ok := parseCommand(text); ok {
		m.input.Reset()
		return m.runCommand(cmd)
	}

	var (
		req *pipeline.Request
		err error
	)
	if m.editingID != "" {
		req, err = m.app.Pipeline.BeginEdit(m.editingID, text)
	} else {
		req, err = m.app.Pipeline.Begin(text, m.attachment)
	}
	if err != nil {
		if isSilent(err) {
			return m, nil
		}
		return m.setNotice(err.Error(), true)
	}

	m.input.Reset()
	m.editingID = ""
	m.pendingSession = req.SessionID
	m.refresh()
	m.viewport.GotoBottom()

	cmds := []tea.Cmd{m.execute(req), m.spinner.Tick}
	if req.ImageModeActivated {
		var cmd tea.Cmd
		m, cmd = m.setNotice("Image mode on: prompts are sent as image requests (Ctrl+G to turn off).", false)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// isSilent reports errors that leave the screen unchanged.
func isSilent(err error) bool {
	return errors.Is(err, pipeline.ErrEmptyInput) ||
		errors.Is(err, pipeline.ErrBusy) ||
		errors.Is(err, pipeline.ErrMessageNotFound) ||
		errors.Is(err, pipeline.ErrNotEditable) ||
		errors.Is(err, session.ErrSessionNotFound)
}

func (m Model) newSession() (Model, tea.Cmd) {
	if _, err := m.app.Sessions.CreateSession(); err != nil {
		m.app.Logger.Warn("new session not saved", "err", err)
	}
	m.resetComposer()
	m.refresh()
	return m, nil
}

// switchSession moves the active pointer delta places along the list.
func (m Model) switchSession(delta int) (Model, tea.Cmd) {
	sessions := m.app.Sessions.Sessions()
	idx := 0
	for i, s := range sessions {
		if s.ID == m.app.Sessions.ActiveID() {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 || idx >= len(sessions) {
		return m, nil
	}
	return m.loadSession(sessions[idx].ID)
}

func (m Model) loadSession(id string) (Model, tea.Cmd) {
	if _, err := m.app.Sessions.LoadSession(id); err != nil {
		return m, nil
	}
	m.resetComposer()
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// resetComposer leaves edit and selection mode after a session change.
func (m *Model) resetComposer() {
	if m.editingID != "" {
		m.input.Reset()
	}
	m.editingID = ""
	m.selecting = false
	m.cursor = 0
}

func (m Model) toggleVoice() (Model, tea.Cmd) {
	on, err := m.app.VoiceInput.Toggle()
	if errors.Is(err, speech.ErrUnsupported) {
		return m.setNotice("Speech recognition is not available. Set speech.recognizer_command in the config.", true)
	}
	if err != nil {
		return m.setNotice("Voice input failed: "+err.Error(), true)
	}
	m.listening = on
	return m, nil
}

func (m Model) toggleSpeech(id, text string) (Model, tea.Cmd) {
	on, err := m.app.Speaker.Toggle(id, text)
	if errors.Is(err, speech.ErrUnsupported) {
		return m.setNotice("Text-to-speech is not available. Install espeak-ng or set speech.synthesizer_command.", true)
	}
	if err != nil {
		return m.setNotice("Speech failed: "+err.Error(), true)
	}
	if on {
		m.speakingID = id
	} else {
		m.speakingID = ""
	}
	m.refresh()
	return m, nil
}

func (m Model) toggleTheme() (Model, tea.Cmd) {
	m.theme.Toggle()
	m.spinner.Style = m.theme.Spinner
	m.setRenderer()
	m.refresh()
	return m, nil
}

func (m Model) toggleImageMode() (Model, tea.Cmd) {
	if m.app.Pipeline.ToggleImageMode() {
		return m.setNotice("Image mode on.", false)
	}
	return m.setNotice("Image mode off.", false)
}

// setNotice shows text until it is replaced or times out.
func (m Model) setNotice(text string, isError bool) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isError
	seq := m.noticeSeq
	return m, tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) toLogin() {
	m.app.Speaker.Stop()
	m.app.VoiceInput.Stop()
	m.screen = screenLogin
	m.login = newLoginForm()
	m.input.Blur()
	m.resetComposer()
	m.attachment = nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// setRenderer rebuilds the markdown renderer for the current width and theme.
func (m *Model) setRenderer() {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(m.contentWidth()-4),
	)
	if err != nil {
		m.app.Logger.Warn("markdown renderer unavailable", "err", err)
		m.renderer = nil
		return
	}
	m.renderer = r
}

// contentWidth is the width of the message column.
func (m Model) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	if m.theme.ShowSidebar() {
		w -= styles.SidebarWidth + 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

// layout sizes the viewport and input around the fixed chrome.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	w := m.contentWidth()
	m.input.SetWidth(w - 4)

	h := m.height - 1 - 1 - (m.input.Height() + 2)
	if m.notice != "" {
		h -= 3
	}
	if m.attachment != nil || m.editingID != "" {
		h--
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// Screen state accessors.

// Selecting reports whether a message is selected.
func (m Model) Selecting() bool { return m.selecting }

// EditingID returns the message being edited.
func (m Model) EditingID() string { return m.editingID }

// Notice returns the visible notice text.
func (m Model) Notice() string { return m.notice }

// OnLoginScreen reports whether the login form is shown.
func (m Model) OnLoginScreen() bool { return m.screen == screenLogin }
