// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/vasi-tui/internal/content"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/storage"
	"github.com/jeranaias/vasi-tui/internal/ui/styles"
	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if m.screen == screenLogin {
		return m.renderLogin()
	}

	main := m.viewport.View()
	if m.showHelp {
		main = m.renderOverlay()
	}

	column := []string{main}
	if m.notice != "" {
		style := m.theme.Notice
		if m.noticeErr {
			style = m.theme.NoticeError
		}
		column = append(column, style.Width(m.contentWidth()-2).Render(m.notice))
	}
	if line := m.renderComposerInfo(); line != "" {
		column = append(column, line)
	}
	inputStyle := m.theme.InputContainer
	if m.editingID != "" {
		inputStyle = m.theme.InputEditing
	}
	column = append(column, inputStyle.Render(m.input.View()))

	body := lipgloss.JoinVertical(lipgloss.Left, column...)
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)
}

// refresh re-renders the active session into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
}

// =============================================================================
// HEADER AND SIDEBAR
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	left := t.HeaderBrand.Render("Vasi") + "  " + util.TruncateWidth(m.app.Sessions.Active().Title, 40)

	var right string
	if u := m.app.User(); u != nil {
		right = t.Avatar.Render(u.Avatar) + " " + t.HeaderUser.Render(u.Name)
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderSidebar() string {
	t := m.theme
	inner := styles.SidebarWidth - 2
	lines := []string{t.SidebarTitle.Render("Chats")}

	activeID := m.app.Sessions.ActiveID()
	for i, s := range m.app.Sessions.Sessions() {
		title := util.PadRight(util.TruncateWidth(fmt.Sprintf("%d %s", i+1, s.Title), inner), inner)
		if s.ID == activeID {
			lines = append(lines, t.SessionItemSelected.Render(title))
		} else {
			lines = append(lines, t.SessionItem.Render(title))
		}
		meta := fmt.Sprintf("  %s - %d msgs", s.CreatedAt().Format("Jan 2 15:04"), len(s.Messages))
		lines = append(lines, t.SessionMeta.Render(util.TruncateWidth(meta, inner)))
	}

	height := m.height - 2
	if len(lines) > height && height > 0 {
		lines = lines[:height]
	}
	return t.Sidebar.Height(height).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages() string {
	msgs := m.messages()
	if len(msgs) == 0 {
		return m.theme.EmptyState.Render("Start a conversation. Attach a document with /attach PATH, or press F1 for keys.")
	}

	parts := make([]string, 0, len(msgs)+1)
	for i, msg := range msgs {
		parts = append(parts, m.renderMessage(i, msg))
	}
	if m.pendingSession != "" && m.pendingSession == m.app.Sessions.ActiveID() {
		parts = append(parts, m.theme.ThinkingText.Render("Vasi is thinking..."))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(i int, msg model.Message) string {
	t := m.theme
	width := m.contentWidth() - 2

	header := t.RoleLabel.Render(msg.Role.DisplayName()) + " " + t.Timestamp.Render(msg.Timestamp.Format("15:04"))
	if msg.ModelUsed != "" {
		header += " " + t.ModelTag.Render(msg.ModelUsed)
	}
	if msg.ID == m.speakingID {
		header += " " + t.Speaking.Render("[speaking]")
	}
	if msg.ID == m.editingID {
		header += " " + t.ImageModeOn.Render("[editing]")
	}

	var body string
	if msg.Role == model.RoleUser {
		body = t.UserBubble.MaxWidth(width).Render(lipgloss.NewStyle().Width(width - 4).Render(msg.Text))
	} else {
		body = t.AssistantBubble.Render(m.renderMarkdown(msg.Text))
	}

	lines := []string{header, body}
	if msg.FileInfo != nil {
		chip := msg.FileInfo.Filename
		if msg.FileInfo.Type != "" {
			chip += " (" + msg.FileInfo.Type + ")"
		}
		lines = append(lines, t.FileChip.Render("Document: "+chip))
		if msg.FileInfo.Summary != "" {
			lines = append(lines, t.Reasoning.Render(msg.FileInfo.Summary))
		}
	}
	for _, img := range content.Images(msg.Text) {
		label := img.Alt
		if label == "" {
			label = "image"
		}
		lines = append(lines, "Image: "+label+" "+t.ImageLink.Render(img.URL))
	}
	if msg.HasReasoning() {
		lines = append(lines, m.renderReasoning(msg))
	}

	out := strings.Join(lines, "\n")
	if m.selecting && i == m.cursor {
		out = t.Selected.Render(out)
	}
	return out
}

func (m Model) renderReasoning(msg model.Message) string {
	t := m.theme
	if !m.reasoningShown(msg.ID) {
		return t.ReasoningTitle.Render(fmt.Sprintf("+ Reasoning (%d steps)", len(msg.Reasoning)))
	}
	lines := []string{t.ReasoningTitle.Render("- Reasoning")}
	for i, step := range msg.Reasoning {
		lines = append(lines, t.Reasoning.Render(fmt.Sprintf("%d. %s", i+1, step)))
	}
	return strings.Join(lines, "\n")
}

// renderMarkdown renders text through glamour, falling back to plain text.
func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// COMPOSER, STATUS BAR AND OVERLAYS
// =============================================================================

func (m Model) renderComposerInfo() string {
	t := m.theme
	var parts []string
	if m.attachment != nil {
		parts = append(parts, t.AttachmentChip.Render("Attached: "+m.attachment.Label()))
	}
	if m.editingID != "" {
		parts = append(parts, t.ImageModeOn.Render("Editing message - Enter regenerates, Esc cancels"))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	t := m.theme
	var parts []string
	if m.app.Pipeline.Loading() {
		parts = append(parts, m.spinner.View()+" thinking")
	}
	if m.app.Pipeline.ImageMode() {
		parts = append(parts, t.ImageModeOn.Render("IMAGE"))
	}
	if m.listening {
		parts = append(parts, t.Listening.Render("LISTENING"))
	}
	if m.speakingID != "" {
		parts = append(parts, t.Speaking.Render("SPEAKING"))
	}

	bindings := m.keys.ShortHelp()
	if m.selecting {
		bindings = m.keys.SelectionHelp()
	}
	parts = append(parts, m.help.ShortHelpView(bindings))

	width := m.width
	if width <= 0 {
		width = 80
	}
	return t.StatusBar.Width(width).MaxWidth(width).Render(strings.Join(parts, "  "))
}

func (m Model) renderOverlay() string {
	t := m.theme
	var body string
	switch m.helpTopic {
	case helpSessions:
		body = storage.FormatSessionList(m.app.Sessions.Sessions()) + "\n\n" +
			t.ShortcutDesc.Render("/load N opens a chat - Esc closes")
	default:
		body = m.renderKeyHelp()
	}
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		t.HelpBox.Render(body))
}

func (m Model) renderKeyHelp() string {
	t := m.theme
	var lines []string
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, t.ShortcutKey.Render(util.PadRight(h.Key, 10))+" "+t.ShortcutDesc.Render(h.Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		t.ShortcutKey.Render("Commands"),
		t.ShortcutDesc.Render("/new /sessions /load N /attach PATH /detach /image"),
		t.ShortcutDesc.Render("/prompt [TEXT|clear] /voice /stop /theme /logout /quit"),
	)
	return strings.Join(lines, "\n")
}
