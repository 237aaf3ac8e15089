// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech wraps speech recognition and synthesis engines.
//
// Engines sit behind the Recognizer and Synthesizer capability
// interfaces. VoiceInput and Speaker are the toggle controllers the UI
// drives; both allow at most one active recognition or utterance.
//
// # Engines
//
//   - CommandSynthesizer: espeak-ng, espeak, say or spd-say, or a
//     configured command that reads text on stdin
//   - CommandRecognizer: a configured command that prints one JSON
//     object per line: {"transcript": "...", "is_final": true}
//
// A missing engine is reported as ErrUnsupported so callers can show a
// notice instead of failing.
package speech
