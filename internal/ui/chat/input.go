// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/vasi-tui/internal/content"
	"github.com/jeranaias/vasi-tui/internal/model"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Cancel, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.selecting {
		return m.handleSelectionKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpTopic = helpKeys
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		switch {
		case m.editingID != "":
			m.editingID = ""
			m.input.Reset()
		case m.notice != "":
			m.notice = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keys.NewSession):
		return m.newSession()

	case key.Matches(msg, m.keys.PrevSession):
		return m.switchSession(-1)

	case key.Matches(msg, m.keys.NextSession):
		return m.switchSession(1)

	case key.Matches(msg, m.keys.ToggleTheme):
		return m.toggleTheme()

	case key.Matches(msg, m.keys.ToggleImage):
		return m.toggleImageMode()

	case key.Matches(msg, m.keys.ToggleVoice):
		return m.toggleVoice()

	case key.Matches(msg, m.keys.Select):
		msgs := m.messages()
		if len(msgs) == 0 {
			return m, nil
		}
		m.selecting = true
		m.cursor = len(msgs) - 1
		m.input.Blur()
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSelectionKey acts on the message under the cursor.
func (m Model) handleSelectionKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	msgs := m.messages()
	if len(msgs) == 0 {
		m.leaveSelection()
		return m, nil
	}
	m.clampCursor()
	current := msgs[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Cancel, m.keys.Select):
		m.leaveSelection()
		m.refresh()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(msgs)-1 {
			m.cursor++
			m.refresh()
		}

	case key.Matches(msg, m.keys.EditMessage):
		if current.Role != model.RoleUser || m.app.Pipeline.Loading() {
			return m, nil
		}
		m.editingID = current.ID
		m.input.SetValue(current.Text)
		m.leaveSelection()
		m.refresh()

	case key.Matches(msg, m.keys.SpeakMessage):
		return m.toggleSpeech(current.ID, current.Text)

	case key.Matches(msg, m.keys.ShowReasoning):
		if current.HasReasoning() {
			m.reasoningOpen[current.ID] = !m.reasoningShown(current.ID)
			m.refresh()
		}

	case key.Matches(msg, m.keys.CopyCode):
		return m.copyCode(current, codeIndex(msg.String()))
	}
	return m, nil
}

// codeIndex maps "y" to the first block and "1".."9" to blocks 0..8.
func codeIndex(k string) int {
	if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
		return int(k[0] - '1')
	}
	return 0
}

func (m Model) copyCode(msg model.Message, i int) (Model, tea.Cmd) {
	block, err := content.CopyCodeBlock(m.app.Clipboard, msg.Text, i)
	switch {
	case errors.Is(err, content.ErrNoCodeBlock):
		return m.setNotice(fmt.Sprintf("No code block %d in this message.", i+1), false)
	case errors.Is(err, content.ErrClipboardUnsupported):
		return m.setNotice("Clipboard is not available in this terminal.", true)
	case err != nil:
		return m.setNotice("Copy failed: "+err.Error(), true)
	}
	return m.setNotice(fmt.Sprintf("Copied %s block to clipboard.", block.Label()), false)
}

func (m *Model) leaveSelection() {
	m.selecting = false
	m.input.Focus()
}

func (m *Model) clampCursor() {
	n := len(m.messages())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n == 0 {
		m.selecting = false
	}
}

// reasoningShown reports whether the trace of message id is expanded.
func (m Model) reasoningShown(id string) bool {
	if open, ok := m.reasoningOpen[id]; ok {
		return open
	}
	return m.app.Config.UI.ShowReasoning
}

func (m Model) messages() []model.Message {
	return m.app.Sessions.Messages(m.app.Sessions.ActiveID())
}
