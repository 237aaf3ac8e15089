// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// # Key Types
//
//   - Session: A titled, ordered, persisted conversation thread
//   - Message: One turn in a session, authored by the user or the assistant
//   - FileInfo: Descriptor of a document attached to or analysed in a turn
//   - User: The signed-in user record
//   - Role: Message author (user, assistant)
//
// # Invariants
//
// Message order inside a Session is insertion order. It is only ever
// appended to or truncated, never reordered. A session title is always
// derived from the first message (see DeriveTitle).
//
// # Usage
//
//	sess := model.NewSession()
//	sess.SetMessages(append(sess.Messages, model.NewUserMessage("hello")))
//	fmt.Println(sess.Title) // "hello"
package model
