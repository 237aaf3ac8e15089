// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/util"
)

const (
	// ContextMessages is how many trailing messages feed the context string.
	ContextMessages = 3

	// ContextMessageRunes caps each message's contribution.
	ContextMessageRunes = 200

	// SystemInstructionsLabel introduces the custom system prompt.
	SystemInstructionsLabel = "System Instructions: "

	// ImagePrefix is prepended to every prompt while image mode is on.
	ImagePrefix = "image of "
)

// ImageKeywords switch image mode on when found anywhere in a prompt.
var ImageKeywords = []string{"image", "picture", "photo", "draw", "generate", "create", "visualize"}

// =============================================================================
// CONTEXT STRING
// =============================================================================

// BuildContext renders the short-term memory sent with a prompt. Of the
// last three messages in history, those with text contribute one line
// each ("User: ..." or "AI: ...", at most 200 characters of text). A
// non-empty systemPrompt is placed in front under "System Instructions:".
func BuildContext(history []model.Message, systemPrompt string) string {
	start := len(history) - ContextMessages
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, ContextMessages)
	for _, msg := range history[start:] {
		if msg.Text == "" {
			continue
		}
		text := util.TruncateRunesNoEllipsis(msg.Text, ContextMessageRunes)
		lines = append(lines, msg.Role.ContextLabel()+": "+text)
	}
	joined := strings.Join(lines, "\n")

	if systemPrompt != "" {
		return SystemInstructionsLabel + systemPrompt + "\n\n" + joined
	}
	return joined
}

// =============================================================================
// IMAGE INTENT
// =============================================================================

// DetectImageIntent reports whether prompt contains an image keyword,
// ignoring case.
func DetectImageIntent(prompt string) bool {
	folded := cases.Fold().String(prompt)
	for _, kw := range ImageKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// EffectivePrompt returns the text actually sent for prompt.
func EffectivePrompt(prompt string, imageMode bool) string {
	if imageMode {
		return ImagePrefix + prompt
	}
	return prompt
}
