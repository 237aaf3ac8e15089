// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSynth struct {
	mu        sync.Mutex
	available bool
	voices    []Voice
	spoken    []Utterance
	pending   func(error)
	active    int
}

func (f *fakeSynth) Available() bool          { return f.available }
func (f *fakeSynth) Voices() ([]Voice, error) { return f.voices, nil }

func (f *fakeSynth) Speak(u Utterance, done func(error)) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	f.pending = done
	f.active = 1
	f.mu.Unlock()
	return nil
}

// Cancel ends the current utterance the way a real engine reports it.
func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	done := f.pending
	f.pending = nil
	f.active = 0
	f.mu.Unlock()
	if done != nil {
		done(errors.New("interrupted"))
	}
}

// finish simulates natural completion.
func (f *fakeSynth) finish() {
	f.mu.Lock()
	done := f.pending
	f.pending = nil
	f.active = 0
	f.mu.Unlock()
	if done != nil {
		done(nil)
	}
}

type fakeRecognition struct{ stopped bool }

func (f *fakeRecognition) Stop() { f.stopped = true }

type fakeRecognizer struct {
	available bool
	starts    int
	opts      RecognitionOptions
	events    RecognitionEvents
	handle    *fakeRecognition
}

func (f *fakeRecognizer) Available() bool { return f.available }

func (f *fakeRecognizer) Start(opts RecognitionOptions, events RecognitionEvents) (Recognition, error) {
	f.starts++
	f.opts = opts
	f.events = events
	f.handle = &fakeRecognition{}
	return f.handle, nil
}

// =============================================================================
// SANITIZE TESTS
// =============================================================================

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello there.", "Hello there."},
		{"code block", "Here:\n```go\nfmt.Println(1)\n```\nDone", "Here: . I have generated the code solution below. Done"},
		{"url", "See https://example.com/x?y=1 now", "See a link. now"},
		{"markdown stripped", "**bold** _it_ # head `code` [link]", "bold it head code link"},
		{"whitespace collapsed", "  a \n\n\t b  ", "a b"},
		{"empty", "", "Here is the result."},
		{"single char", "*x*", "Here is the result."},
		{"only punctuation", "### ***", "Here is the result."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitize_Truncates(t *testing.T) {
	out := Sanitize(strings.Repeat("ab ", 3000))
	assert.Equal(t, 4003, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "..."))

	exact := strings.Repeat("x", 4000)
	assert.Equal(t, exact, Sanitize(exact))
}

// =============================================================================
// VOICE SELECTION TESTS
// =============================================================================

func TestSelectVoice(t *testing.T) {
	assert.Nil(t, SelectVoice(nil, ""))

	voices := []Voice{
		{ID: "de", Name: "German", Lang: "de-DE"},
		{ID: "en-gb", Name: "English (Britain)", Lang: "en-GB"},
		{ID: "en-us", Name: "English (America)", Lang: "en_US"},
		{ID: "g", Name: "Google US English", Lang: "en-US"},
	}
	assert.Equal(t, "g", SelectVoice(voices, "").ID, "named voice wins")
	assert.Equal(t, "en-us", SelectVoice(voices[:3], "").ID, "then US English")
	assert.Equal(t, "en-gb", SelectVoice(voices[:2], "").ID, "then any English")
	assert.Equal(t, "de", SelectVoice(voices[:1], "").ID, "then the first")
	assert.Equal(t, "de", SelectVoice(voices, "German").ID, "configured name")
}

// =============================================================================
// SPEAKER TESTS
// =============================================================================

func TestSpeaker_Unsupported(t *testing.T) {
	s := NewSpeaker(nil, SpeakerConfig{}, nil)
	_, err := s.Toggle("m1", "hi")
	assert.ErrorIs(t, err, ErrUnsupported)

	s = NewSpeaker(&fakeSynth{}, SpeakerConfig{}, nil)
	_, err = s.Toggle("m1", "hi")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "", s.SpeakingID())
}

func TestSpeaker_SameMessageTogglesOff(t *testing.T) {
	synth := &fakeSynth{available: true}
	s := NewSpeaker(synth, SpeakerConfig{}, nil)

	playing, err := s.Toggle("m1", "hello")
	require.NoError(t, err)
	assert.True(t, playing)
	assert.Equal(t, "m1", s.SpeakingID())

	playing, err = s.Toggle("m1", "hello")
	require.NoError(t, err)
	assert.False(t, playing)
	assert.Equal(t, "", s.SpeakingID())
	assert.Equal(t, 0, synth.active)
	assert.Len(t, synth.spoken, 1)
}

func TestSpeaker_OtherMessageReplaces(t *testing.T) {
	synth := &fakeSynth{available: true}
	s := NewSpeaker(synth, SpeakerConfig{}, nil)

	var states []string
	s.SetStateCallback(func(id string) { states = append(states, id) })

	_, err := s.Toggle("A", "first")
	require.NoError(t, err)
	_, err = s.Toggle("B", "second")
	require.NoError(t, err)

	assert.Equal(t, "B", s.SpeakingID(), "stale completion of A must not reset state")
	assert.Equal(t, 1, synth.active)
	require.Len(t, synth.spoken, 2)
	assert.Equal(t, "second", synth.spoken[1].Text)
	assert.Equal(t, []string{"A", "B"}, states)

	synth.finish()
	assert.Equal(t, "", s.SpeakingID(), "natural end returns to idle")
	assert.Equal(t, []string{"A", "B", ""}, states)
}

func TestSpeaker_UtteranceSettings(t *testing.T) {
	synth := &fakeSynth{available: true, voices: []Voice{{ID: "en-us", Name: "English", Lang: "en-US"}}}
	s := NewSpeaker(synth, SpeakerConfig{}, nil)

	_, err := s.Toggle("m", "**Hi** https://x.io")
	require.NoError(t, err)

	u := synth.spoken[0]
	assert.Equal(t, "Hi a link.", u.Text)
	assert.Equal(t, "en-US", u.Lang)
	assert.Equal(t, 1.0, u.Rate)
	require.NotNil(t, u.Voice)
	assert.Equal(t, "en-us", u.Voice.ID)
}

func TestSpeaker_Stop(t *testing.T) {
	synth := &fakeSynth{available: true}
	s := NewSpeaker(synth, SpeakerConfig{}, nil)
	_, _ = s.Toggle("m", "x y")
	s.Stop()
	assert.Equal(t, "", s.SpeakingID())
	s.Stop()
}

// =============================================================================
// VOICE INPUT TESTS
// =============================================================================

func TestVoiceInput_Unsupported(t *testing.T) {
	v := NewVoiceInput(nil, "", nil)
	_, err := v.Toggle()
	assert.ErrorIs(t, err, ErrUnsupported)

	v = NewVoiceInput(&fakeRecognizer{}, "", nil)
	_, err = v.Toggle()
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, v.Listening())
}

func TestVoiceInput_AccumulatesFinalsAndOverwritesInterim(t *testing.T) {
	rec := &fakeRecognizer{available: true}
	v := NewVoiceInput(rec, "", nil)

	var shown []string
	v.SetCallbacks(func(text string) { shown = append(shown, text) }, nil)

	listening, err := v.Toggle()
	require.NoError(t, err)
	assert.True(t, listening)
	assert.Equal(t, RecognitionOptions{Lang: "en-US", Continuous: true, Interim: true}, rec.opts)

	rec.events.OnResult(SpeechResult{Transcript: "hel"})
	rec.events.OnResult(SpeechResult{Transcript: "hello"})
	rec.events.OnResult(SpeechResult{Transcript: "hello world", IsFinal: true})
	rec.events.OnResult(SpeechResult{Transcript: "how"})
	rec.events.OnResult(SpeechResult{Transcript: "how are you", IsFinal: true})

	assert.Equal(t, []string{
		"hel",
		"hello",
		"hello world ",
		"hello world how",
		"hello world how are you ",
	}, shown)
	assert.Equal(t, "hello world how are you ", v.Transcript())
}

func TestVoiceInput_ToggleStops(t *testing.T) {
	rec := &fakeRecognizer{available: true}
	v := NewVoiceInput(rec, "fr-FR", nil)

	var states []bool
	v.SetCallbacks(nil, func(l bool) { states = append(states, l) })

	_, err := v.Toggle()
	require.NoError(t, err)
	first := rec.handle
	assert.Equal(t, "fr-FR", rec.opts.Lang)

	listening, err := v.Toggle()
	require.NoError(t, err)
	assert.False(t, listening)
	assert.True(t, first.stopped)
	assert.Equal(t, []bool{true, false}, states)

	// Late events from the stopped run are ignored
	rec.events.OnResult(SpeechResult{Transcript: "ghost", IsFinal: true})
	rec.events.OnEnd(nil)
	assert.Equal(t, "", v.Transcript())
	assert.Equal(t, []bool{true, false}, states)
}

func TestVoiceInput_EngineEndResetsState(t *testing.T) {
	rec := &fakeRecognizer{available: true}
	v := NewVoiceInput(rec, "", nil)

	require.NoError(t, v.Start())
	rec.events.OnEnd(errors.New("no-speech"))
	assert.False(t, v.Listening())

	// A new run starts with an empty transcript
	rec.events.OnResult(SpeechResult{Transcript: "old", IsFinal: true})
	require.NoError(t, v.Start())
	assert.Equal(t, 2, rec.starts)
	assert.Equal(t, "", v.Transcript())
}

func TestVoiceInput_StartReplacesActiveRun(t *testing.T) {
	rec := &fakeRecognizer{available: true}
	v := NewVoiceInput(rec, "", nil)

	require.NoError(t, v.Start())
	first := rec.handle
	require.NoError(t, v.Start())

	assert.True(t, first.stopped)
	assert.True(t, v.Listening())
}

// =============================================================================
// COMMAND ENGINE TESTS
// =============================================================================

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`)
	voices := parseEspeakVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{ID: "en-us", Name: "English (America)", Lang: "en-us"}, voices[1])
	assert.Equal(t, "en-us", SelectVoice(voices, "").ID)
}

func TestParseSayVoices(t *testing.T) {
	out := []byte("Alex                en_US    # Most people recognize me by my voice.\n" +
		"Bad News            en_US    # The light you see at the end of the tunnel.\n" +
		"Amelie              fr_CA    # Bonjour\n")
	voices := parseSayVoices(out)
	require.Len(t, voices, 3)
	assert.Equal(t, "Bad News", voices[1].Name)
	assert.Equal(t, "en-US", voices[1].Lang)
	assert.Equal(t, "fr-CA", voices[2].Lang)
}

func TestParseSpdVoices(t *testing.T) {
	out := []byte("NAME                 LANGUAGE  VARIANT\nEnglish (America)    en-US     none\n")
	voices := parseSpdVoices(out)
	require.Len(t, voices, 1)
	assert.Equal(t, "English (America)", voices[0].Name)
	assert.Equal(t, "en-US", voices[0].Lang)
}

func TestCommandSynthesizer_Args(t *testing.T) {
	c := &CommandSynthesizer{Path: "/usr/bin/espeak-ng"}
	args, stdin := c.buildArgs(Utterance{Text: "hi", Voice: &Voice{ID: "en-us"}, Rate: 1.0})
	assert.True(t, stdin)
	assert.Equal(t, []string{"-v", "en-us", "-s", "175", "--stdin"}, args)

	c = &CommandSynthesizer{Path: "/usr/bin/say"}
	args, stdin = c.buildArgs(Utterance{Text: "hi", Rate: 2})
	assert.True(t, stdin)
	assert.Equal(t, []string{"-r", "350"}, args)

	c = &CommandSynthesizer{Path: "/usr/bin/spd-say"}
	args, stdin = c.buildArgs(Utterance{Text: "hi"})
	assert.False(t, stdin)
	assert.Equal(t, []string{"-w", "hi"}, args)
}

func TestMissingCommands(t *testing.T) {
	assert.False(t, DetectSynthesizer("definitely-not-a-real-binary-xyz").Available())
	assert.False(t, NewCommandRecognizer("", nil).Available())
	assert.False(t, NewCommandRecognizer("definitely-not-a-real-binary-xyz", nil).Available())

	_, err := NewCommandRecognizer("", nil).Start(RecognitionOptions{}, RecognitionEvents{})
	assert.Error(t, err)
}

func TestSpeechResult_Validate(t *testing.T) {
	assert.NoError(t, SpeechResult{Transcript: "hi"}.Validate())
	assert.Error(t, SpeechResult{Transcript: "  "}.Validate())
}
