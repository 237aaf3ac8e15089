// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"regexp"
	"strings"

	"github.com/jeranaias/vasi-tui/internal/util"
)

const (
	// CodePlaceholder replaces fenced code blocks.
	CodePlaceholder = ". I have generated the code solution below. "

	// LinkPlaceholder replaces URLs.
	LinkPlaceholder = " a link. "

	// EmptyPlaceholder is spoken when nothing speakable remains.
	EmptyPlaceholder = "Here is the result."

	// MaxSpokenRunes caps the text handed to the engine.
	MaxSpokenRunes = 4000

	// PreferredVoiceName is matched first when choosing a voice.
	PreferredVoiceName = "Google US English"
)

var (
	fencedCodeRe = regexp.MustCompile("```[\\s\\S]*?```")
	urlRe        = regexp.MustCompile(`https?://\S+`)
	markdownRe   = regexp.MustCompile("[*#_`\\[\\]]")
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Sanitize converts a message body into speakable text.
func Sanitize(text string) string {
	text = fencedCodeRe.ReplaceAllString(text, CodePlaceholder)
	text = urlRe.ReplaceAllString(text, LinkPlaceholder)
	text = markdownRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	if util.RuneLen(text) < 2 {
		text = EmptyPlaceholder
	}
	if util.RuneLen(text) > MaxSpokenRunes {
		text = util.TruncateRunesNoEllipsis(text, MaxSpokenRunes) + "..."
	}
	return text
}

// SelectVoice picks, in order: a voice whose name contains preferred,
// a US English voice, any English voice, the first voice. It returns nil
// for an empty list.
func SelectVoice(voices []Voice, preferred string) *Voice {
	if len(voices) == 0 {
		return nil
	}
	if preferred == "" {
		preferred = PreferredVoiceName
	}

	pick := func(match func(Voice) bool) *Voice {
		for i := range voices {
			if match(voices[i]) {
				return &voices[i]
			}
		}
		return nil
	}

	if v := pick(func(v Voice) bool { return strings.Contains(v.Name, preferred) || v.ID == preferred }); v != nil {
		return v
	}
	if v := pick(func(v Voice) bool { return hasLangPrefix(v.Lang, "en-US") }); v != nil {
		return v
	}
	if v := pick(func(v Voice) bool { return hasLangPrefix(v.Lang, "en") }); v != nil {
		return v
	}
	return &voices[0]
}

// hasLangPrefix compares language tags ignoring case and "_" vs "-".
func hasLangPrefix(lang, prefix string) bool {
	norm := strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
	return strings.HasPrefix(norm, strings.ToLower(prefix))
}
