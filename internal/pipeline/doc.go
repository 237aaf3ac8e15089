// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline turns user input into assistant turns.
//
// A send runs in three phases so a UI can show the user's message before
// the network round trip finishes:
//
//	req, err := p.Begin(text, attachment) // appends the user message, sets loading
//	resp, err := p.Execute(ctx, req)      // network call, touches no state
//	result := p.Complete(req, resp, err)  // appends the reply, clears loading
//
// Send and Edit run all three phases in one call.
//
// The reply is always appended to the session the request started in,
// even if another session became active meanwhile. Only one request may
// be outstanding at a time; Begin and BeginEdit return ErrBusy otherwise.
package pipeline
