// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned when no engine is available.
var ErrUnsupported = errors.New("speech engine not available")

// =============================================================================
// RECOGNITION
// =============================================================================

// SpeechResult is one recognition event.
type SpeechResult struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`
}

// Validate rejects results without text.
func (r SpeechResult) Validate() error {
	if strings.TrimSpace(r.Transcript) == "" {
		return errors.New("empty transcript")
	}
	return nil
}

// RecognitionOptions configures one recognition run.
type RecognitionOptions struct {
	// Lang is a BCP 47 tag such as "en-US".
	Lang string

	// Continuous keeps listening after the first final result.
	Continuous bool

	// Interim requests non-final results.
	Interim bool
}

// RecognitionEvents receives results and the end of a run. OnEnd is
// called exactly once, with nil after Stop or a clean exit.
type RecognitionEvents struct {
	OnResult func(SpeechResult)
	OnEnd    func(err error)
}

// Recognition is a running recognition handle.
type Recognition interface {
	Stop()
}

// Recognizer turns speech into text.
type Recognizer interface {
	Available() bool
	Start(opts RecognitionOptions, events RecognitionEvents) (Recognition, error)
}

// =============================================================================
// SYNTHESIS
// =============================================================================

// Voice is one synthesis voice.
type Voice struct {
	// ID is what the engine expects to select the voice.
	ID   string
	Name string
	Lang string
}

// Utterance is one piece of text to speak.
type Utterance struct {
	Text  string
	Voice *Voice
	Lang  string

	// Rate is relative; 1.0 is normal speed.
	Rate float64
}

// Synthesizer speaks text. Speak starts playback and returns; done is
// called exactly once when playback ends, fails or is cancelled.
type Synthesizer interface {
	Available() bool
	Voices() ([]Voice, error)
	Speak(u Utterance, done func(err error)) error
	Cancel()
}
