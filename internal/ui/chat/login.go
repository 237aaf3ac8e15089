// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// LOGIN FORM
// =============================================================================

type loginForm struct {
	name  textinput.Model
	email textinput.Model
	focus int
	err   string
}

func newLoginForm() loginForm {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 64
	name.Prompt = "> "
	name.Focus()

	email := textinput.New()
	email.Placeholder = "you@example.com (optional)"
	email.CharLimit = 128
	email.Prompt = "> "

	return loginForm{name: name, email: email}
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.name.Focus()
		f.email.Blur()
	} else {
		f.name.Blur()
		f.email.Focus()
	}
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.email, cmd = f.email.Update(msg)
	}
	return f, cmd
}

// updateLogin handles keys on the login screen. Enter on the name field
// moves to the email field; enter on the email field signs in.
func (m Model) updateLogin(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case "enter":
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		return m.signIn()
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) signIn() (Model, tea.Cmd) {
	if _, err := m.app.Login(m.login.name.Value(), m.login.email.Value()); err != nil {
		m.login.err = err.Error()
		return m, nil
	}
	m.screen = screenChat
	m.login = newLoginForm()
	m.input.Focus()
	m.refresh()
	return m, textarea.Blink
}

func (m Model) renderLogin() string {
	t := m.theme
	var b []string
	b = append(b,
		t.LoginTitle.Render("Welcome to Vasi"),
		t.LoginLabel.Render("Name"),
		m.login.name.View(),
		"",
		t.LoginLabel.Render("Email"),
		m.login.email.View(),
	)
	if m.login.err != "" {
		b = append(b, "", t.NoticeError.Render(m.login.err))
	}
	b = append(b, "", t.ShortcutDesc.Render("Tab switch field - Enter continue - Ctrl+C quit"))

	box := t.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Left, b...))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
