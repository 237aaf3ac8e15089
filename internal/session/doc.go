// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the list of chat sessions and the active pointer.
//
// # Key Types
//
//   - Store: the session list, the active session and persistence
//
// # Usage
//
//	store := session.NewStore(repo, logger)
//	if err := store.Init(); err != nil {
//	    // storage unreadable; the store still holds one empty session
//	}
//	s, _ := store.CreateSession()
//	store.AppendMessage(s.ID, model.NewUserMessage("hello"))
//
// Every change to the list is written through the Repository as the full
// serialized list. An empty list is never written.
package session
