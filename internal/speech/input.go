// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultLang is used when no language is configured.
const DefaultLang = "en-US"

// =============================================================================
// VOICE INPUT
// =============================================================================

// VoiceInput drives one recognition run at a time. Final segments
// accumulate with a trailing space; the latest interim segment is shown
// after them and replaced by the next one.
type VoiceInput struct {
	mu sync.Mutex

	recognizer Recognizer
	lang       string
	logger     *log.Logger

	active Recognition
	gen    uint64

	final   string
	interim string

	onText  func(text string)
	onState func(listening bool)
}

// NewVoiceInput creates a controller. recognizer may be nil.
func NewVoiceInput(recognizer Recognizer, lang string, logger *log.Logger) *VoiceInput {
	if lang == "" {
		lang = DefaultLang
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &VoiceInput{
		recognizer: recognizer,
		lang:       lang,
		logger:     logger.With("component", "voice-input"),
	}
}

// SetCallbacks registers the transcript and listening-state observers.
// Both may be called from the engine's goroutine.
func (v *VoiceInput) SetCallbacks(onText func(text string), onState func(listening bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onText = onText
	v.onState = onState
}

// Supported reports whether a recognizer is available.
func (v *VoiceInput) Supported() bool {
	return v.recognizer != nil && v.recognizer.Available()
}

// Listening reports whether a run is active.
func (v *VoiceInput) Listening() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active != nil
}

// Transcript returns the accumulated final text plus the current interim.
func (v *VoiceInput) Transcript() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.final + v.interim
}

// Toggle stops an active run or starts a new one. It returns the new
// listening state.
func (v *VoiceInput) Toggle() (bool, error) {
	if v.Listening() {
		v.Stop()
		return false, nil
	}
	if err := v.Start(); err != nil {
		return false, err
	}
	return true, nil
}

// Start begins a continuous run with interim results, replacing any
// active run. The transcript is reset.
func (v *VoiceInput) Start() error {
	if !v.Supported() {
		return ErrUnsupported
	}
	v.Stop()

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.final = ""
	v.interim = ""
	v.mu.Unlock()

	handle, err := v.recognizer.Start(RecognitionOptions{
		Lang:       v.lang,
		Continuous: true,
		Interim:    true,
	}, RecognitionEvents{
		OnResult: func(r SpeechResult) { v.handleResult(gen, r) },
		OnEnd:    func(err error) { v.handleEnd(gen, err) },
	})
	if err != nil {
		v.logger.Warn("recognition failed to start", "err", err)
		return err
	}

	v.mu.Lock()
	if v.gen != gen {
		// Ended before Start returned
		v.mu.Unlock()
		return nil
	}
	v.active = handle
	onState := v.onState
	v.mu.Unlock()

	v.logger.Debug("listening", "lang", v.lang)
	if onState != nil {
		onState(true)
	}
	return nil
}

// Stop tears down the active run, if any.
func (v *VoiceInput) Stop() {
	v.mu.Lock()
	handle := v.active
	v.active = nil
	v.gen++
	onState := v.onState
	v.mu.Unlock()

	if handle == nil {
		return
	}
	handle.Stop()
	if onState != nil {
		onState(false)
	}
}

func (v *VoiceInput) handleResult(gen uint64, r SpeechResult) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	if r.IsFinal {
		v.final += r.Transcript + " "
		v.interim = ""
	} else {
		v.interim = r.Transcript
	}
	text := v.final + v.interim
	onText := v.onText
	v.mu.Unlock()

	if onText != nil {
		onText(text)
	}
}

func (v *VoiceInput) handleEnd(gen uint64, err error) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	v.gen++
	v.active = nil
	onState := v.onState
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("recognition ended with error", "err", err)
	}
	if onState != nil {
		onState(false)
	}
}
