// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// SpeakerConfig holds voice preferences.
type SpeakerConfig struct {
	// Voice is matched against voice names first. Default "Google US English".
	Voice string

	// Lang is the utterance language. Default "en-US".
	Lang string

	// Rate is relative speed. Default 1.0.
	Rate float64
}

// =============================================================================
// SPEAKER
// =============================================================================

// Speaker plays at most one message at a time. Asking for the message
// that is playing stops it; asking for another one replaces it.
type Speaker struct {
	// ops serializes Toggle and Stop; mu guards state and is never held
	// while calling the engine.
	ops sync.Mutex
	mu  sync.Mutex

	synth  Synthesizer
	config SpeakerConfig
	logger *log.Logger

	speakingID string
	gen        uint64

	onState func(speakingID string)
}

// NewSpeaker creates a controller. synth may be nil.
func NewSpeaker(synth Synthesizer, config SpeakerConfig, logger *log.Logger) *Speaker {
	if config.Lang == "" {
		config.Lang = DefaultLang
	}
	if config.Rate <= 0 {
		config.Rate = 1.0
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Speaker{
		synth:  synth,
		config: config,
		logger: logger.With("component", "speaker"),
	}
}

// SetStateCallback registers fn to receive the playing message id, or ""
// when idle. It may be called from the engine's goroutine.
func (s *Speaker) SetStateCallback(fn func(speakingID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// Supported reports whether a synthesizer is available.
func (s *Speaker) Supported() bool {
	return s.synth != nil && s.synth.Available()
}

// SpeakingID returns the id of the playing message, or "".
func (s *Speaker) SpeakingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakingID
}

// Toggle starts playback of text for messageID, or stops it if that
// message is already playing. It returns whether messageID is now playing.
func (s *Speaker) Toggle(messageID, text string) (bool, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	if s.SpeakingID() == messageID && messageID != "" {
		s.stopLocked()
		return false, nil
	}
	if !s.Supported() {
		return false, ErrUnsupported
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.speakingID = messageID
	onState := s.onState
	s.mu.Unlock()

	// Stop others. Their completion carries an older gen and is ignored.
	s.synth.Cancel()
	if onState != nil {
		onState(messageID)
	}

	u := Utterance{
		Text: Sanitize(text),
		Lang: s.config.Lang,
		Rate: s.config.Rate,
	}
	if voices, err := s.synth.Voices(); err == nil {
		u.Voice = SelectVoice(voices, s.config.Voice)
	} else {
		s.logger.Debug("voice list unavailable", "err", err)
	}

	if err := s.synth.Speak(u, func(err error) { s.finish(gen, err) }); err != nil {
		s.finish(gen, err)
		return false, err
	}
	return true, nil
}

// Stop cancels any playback.
func (s *Speaker) Stop() {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.stopLocked()
}

// stopLocked cancels playback. Caller holds s.ops.
func (s *Speaker) stopLocked() {
	s.mu.Lock()
	wasSpeaking := s.speakingID != ""
	s.gen++
	s.speakingID = ""
	onState := s.onState
	s.mu.Unlock()

	if s.synth != nil {
		s.synth.Cancel()
	}
	if wasSpeaking && onState != nil {
		onState("")
	}
}

// finish resets to idle unless a newer utterance has started.
func (s *Speaker) finish(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.speakingID = ""
	onState := s.onState
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("speech ended with error", "err", err)
	}
	if onState != nil {
		onState("")
	}
}
