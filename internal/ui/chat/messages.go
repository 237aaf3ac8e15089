// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/vasi-tui/internal/assistant"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
)

// =============================================================================
// REQUEST MESSAGES
// =============================================================================

// ResponseMsg carries the outcome of an assistant request back to Update.
type ResponseMsg struct {
	Request  *pipeline.Request
	Response *assistant.ChatResponse
	Err      error
}

// =============================================================================
// SPEECH MESSAGES
// =============================================================================

// VoiceTextMsg replaces the input with the current transcript.
type VoiceTextMsg struct {
	Text string
}

// VoiceStateMsg reports that recognition started or stopped.
type VoiceStateMsg struct {
	Listening bool
}

// SpeechStateMsg reports which message is being read aloud. Empty when idle.
type SpeechStateMsg struct {
	SpeakingID string
}

// =============================================================================
// STORAGE MESSAGES
// =============================================================================

// StorageChangedMsg reports a key rewritten by another process.
type StorageChangedMsg struct {
	Key string
}

// =============================================================================
// NOTICE MESSAGES
// =============================================================================

// clearNoticeMsg hides the notice with the given sequence number.
type clearNoticeMsg struct {
	seq int
}
