// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// command is a parsed slash command. Arg is the rest of the line, trimmed.
type command struct {
	Name string
	Arg  string
}

// CommandHandler handles one slash command.
type CommandHandler func(m Model, arg string) (Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers map[string]CommandHandler

func init() {
	commandHandlers = map[string]CommandHandler{
		"help": handleHelpCommand,
		"h":    handleHelpCommand,
		"?":    handleHelpCommand,
		"quit": handleQuitCommand,
		"q":    handleQuitCommand,
		"exit": handleQuitCommand,

		// Sessions
		"new":      handleNewCommand,
		"n":        handleNewCommand,
		"sessions": handleSessionsCommand,
		"list":     handleSessionsCommand,
		"load":     handleLoadCommand,
		"l":        handleLoadCommand,

		// Composer
		"attach": handleAttachCommand,
		"a":      handleAttachCommand,
		"detach": handleDetachCommand,
		"image":  handleImageCommand,
		"img":    handleImageCommand,
		"prompt": handlePromptCommand,

		// Speech
		"voice": handleVoiceCommand,
		"v":     handleVoiceCommand,
		"stop":  handleStopCommand,

		// Settings
		"theme":  handleThemeCommand,
		"logout": handleLogoutCommand,
	}
}

// parseCommand recognises a single-line input starting with "/".
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || strings.Contains(text, "\n") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(text[1:], " ")
	return command{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}, true
}

// runCommand dispatches a parsed command.
func (m Model) runCommand(cmd command) (Model, tea.Cmd) {
	handler, ok := commandHandlers[cmd.Name]
	if !ok {
		return m.setNotice(fmt.Sprintf("Unknown command /%s. Type /help for the list.", cmd.Name), true)
	}
	return handler(m, cmd.Arg)
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelpCommand(m Model, _ string) (Model, tea.Cmd) {
	m.showHelp = true
	m.helpTopic = helpKeys
	return m, nil
}

func handleQuitCommand(m Model, _ string) (Model, tea.Cmd) {
	m.Shutdown()
	return m, tea.Quit
}

func handleNewCommand(m Model, _ string) (Model, tea.Cmd) {
	return m.newSession()
}

func handleSessionsCommand(m Model, _ string) (Model, tea.Cmd) {
	m.showHelp = true
	m.helpTopic = helpSessions
	return m, nil
}

func handleLoadCommand(m Model, arg string) (Model, tea.Cmd) {
	n, err := strconv.Atoi(arg)
	sessions := m.app.Sessions.Sessions()
	if err != nil || n < 1 || n > len(sessions) {
		return m.setNotice(fmt.Sprintf("Usage: /load N where N is 1-%d (see /sessions).", len(sessions)), true)
	}
	return m.loadSession(sessions[n-1].ID)
}

func handleAttachCommand(m Model, arg string) (Model, tea.Cmd) {
	if arg == "" {
		return m.setNotice("Usage: /attach PATH", true)
	}
	path, err := util.ExpandHome(arg)
	if err != nil {
		return m.setNotice(err.Error(), true)
	}
	att, err := pipeline.AttachFile(path)
	if err != nil {
		return m.setNotice("Cannot attach: "+err.Error(), true)
	}
	m.attachment = att
	return m.setNotice("Attached "+att.Label()+". It is sent with your next message.", false)
}

func handleDetachCommand(m Model, _ string) (Model, tea.Cmd) {
	if m.attachment == nil {
		return m, nil
	}
	m.attachment = nil
	return m.setNotice("Attachment removed.", false)
}

func handleImageCommand(m Model, _ string) (Model, tea.Cmd) {
	return m.toggleImageMode()
}

func handlePromptCommand(m Model, arg string) (Model, tea.Cmd) {
	switch strings.ToLower(arg) {
	case "":
		current := m.app.Pipeline.SystemPrompt()
		if current == "" {
			return m.setNotice("No system prompt set. Use /prompt TEXT to set one.", false)
		}
		return m.setNotice("System prompt: "+util.TruncateRunes(current, 200), false)
	case "clear":
		arg = ""
	}
	if err := m.app.SetSystemPrompt(arg); err != nil {
		return m.setNotice("Could not save system prompt: "+err.Error(), true)
	}
	if arg == "" {
		return m.setNotice("System prompt cleared.", false)
	}
	return m.setNotice("System prompt saved.", false)
}

func handleVoiceCommand(m Model, _ string) (Model, tea.Cmd) {
	return m.toggleVoice()
}

func handleStopCommand(m Model, _ string) (Model, tea.Cmd) {
	m.app.Speaker.Stop()
	m.speakingID = ""
	m.refresh()
	return m, nil
}

func handleThemeCommand(m Model, _ string) (Model, tea.Cmd) {
	return m.toggleTheme()
}

func handleLogoutCommand(m Model, _ string) (Model, tea.Cmd) {
	if err := m.app.Logout(); err != nil {
		return m.setNotice("Logout failed: "+err.Error(), true)
	}
	m.toLogin()
	return m, nil
}
