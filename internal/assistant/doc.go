// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the HTTP client for the remote assistant API.
//
// The service exposes four endpoints used here:
//
//   - GET  /                         health check
//   - GET  /api/status               service and document-processor status
//   - POST /api/chat                 JSON {message, context, use_reasoning}
//   - POST /api/chat-with-document   multipart {message, file}
//
// Both chat endpoints answer with the same ChatResponse shape.
//
// # Usage
//
//	client := assistant.NewClient()
//	resp, err := client.Chat(ctx, assistant.ChatRequest{
//	    Message: "hello",
//	    Context: "User: hi",
//	})
//
// All errors are *ClientError values; use errors.Is against ErrNotRunning
// or ErrTimeout, or inspect Type.
package assistant
