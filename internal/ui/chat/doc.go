// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen terminal interface of vasi.

# Screens

A login form is shown while no user record is stored. The chat screen has
a header with the active session title and the user avatar, a session
sidebar in wide terminals, the message viewport, the input and a status bar.

# Requests

Enter runs pipeline.Begin (or BeginEdit while editing) on the update loop,
so the user turn is visible at once, then pipeline.Execute in a tea.Cmd.
The ResponseMsg it returns is completed against the session the request
came from, whichever session is shown by then.

# Selection mode

Tab selects the last message; up/down move the cursor. On the selected
message: e edits a user message and regenerates the reply, s reads it
aloud (again to stop), r expands the reasoning trace, y or 1-9 copy a
fenced code block.

# Background events

Speech callbacks and storage watcher reports arrive on a buffered channel
that Init starts draining; each handled event re-arms the wait.
*/
package chat
