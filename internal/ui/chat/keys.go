// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Submit      key.Binding
	Newline     key.Binding
	Cancel      key.Binding
	Quit        key.Binding
	Help        key.Binding
	NewSession  key.Binding
	PrevSession key.Binding
	NextSession key.Binding
	ToggleTheme key.Binding
	ToggleImage key.Binding
	ToggleVoice key.Binding
	Select      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding

	// Selection mode
	Up            key.Binding
	Down          key.Binding
	EditMessage   key.Binding
	SpeakMessage  key.Binding
	ShowReasoning key.Binding
	CopyCode      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("A-Enter", "new line"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel / close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("alt+k", "ctrl+up"),
			key.WithHelp("A-k", "previous chat"),
		),
		NextSession: key.NewBinding(
			key.WithKeys("alt+j", "ctrl+down"),
			key.WithHelp("A-j", "next chat"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "light/dark"),
		),
		ToggleImage: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "image mode"),
		),
		ToggleVoice: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "voice input"),
		),
		Select: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "select messages"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous message"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next message"),
		),
		EditMessage: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit and regenerate"),
		),
		SpeakMessage: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "read aloud / stop"),
		),
		ShowReasoning: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "show reasoning"),
		),
		CopyCode: key.NewBinding(
			key.WithKeys("y", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("y/1-9", "copy code block"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Select, k.Help, k.Quit}
}

// SelectionHelp returns the bindings shown while a message is selected.
func (k KeyMap) SelectionHelp() []key.Binding {
	return []key.Binding{k.EditMessage, k.SpeakMessage, k.ShowReasoning, k.CopyCode, k.Cancel}
}

// FullHelp groups every binding for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.Cancel, k.Quit, k.Help},
		{k.NewSession, k.PrevSession, k.NextSession, k.PageUp, k.PageDown},
		{k.ToggleTheme, k.ToggleImage, k.ToggleVoice, k.Select},
		{k.Up, k.Down, k.EditMessage, k.SpeakMessage, k.ShowReasoning, k.CopyCode},
	}
}
