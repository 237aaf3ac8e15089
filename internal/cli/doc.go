// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the vasi command tree.
//
// Running vasi with no subcommand opens the full-screen chat. The
// subcommands cover the same conversations without the TUI:
//
//   - chat: line-oriented REPL with history
//   - ask: one question, one reply, then exit
//   - sessions: list, show, search and export stored conversations
//   - status: health and capabilities of the assistant API
//   - config: show, get and set configuration values
//   - login, logout, prompt: user record and system prompt
//   - voices: synthesis voices available on this machine
//
// Commands that print data accept --json for scripting.
package cli
