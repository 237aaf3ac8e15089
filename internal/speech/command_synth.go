// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Known synthesis engines, in detection order.
var synthesizerEngines = []string{"espeak-ng", "espeak", "say", "spd-say"}

// baseWordsPerMinute is rate 1.0 for espeak and say.
const baseWordsPerMinute = 175

// =============================================================================
// COMMAND SYNTHESIZER
// =============================================================================

// CommandSynthesizer speaks through an external program.
type CommandSynthesizer struct {
	// Path is the resolved executable; empty means unavailable.
	Path string

	// Args are extra arguments from a configured command line.
	Args []string

	mu     sync.Mutex
	cancel context.CancelFunc
	voices []Voice
	listed bool
}

// DetectSynthesizer resolves the configured command line, or the first
// installed known engine when command is empty.
func DetectSynthesizer(command string) *CommandSynthesizer {
	if fields := strings.Fields(command); len(fields) > 0 {
		path, err := exec.LookPath(fields[0])
		if err != nil {
			return &CommandSynthesizer{}
		}
		return &CommandSynthesizer{Path: path, Args: fields[1:]}
	}
	for _, name := range synthesizerEngines {
		if path, err := exec.LookPath(name); err == nil {
			return &CommandSynthesizer{Path: path}
		}
	}
	return &CommandSynthesizer{}
}

// Available implements Synthesizer.
func (c *CommandSynthesizer) Available() bool {
	return c.Path != ""
}

// Engine returns the executable base name.
func (c *CommandSynthesizer) Engine() string {
	if c.Path == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
}

// Voices implements Synthesizer. The list is read once and cached.
func (c *CommandSynthesizer) Voices() ([]Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listed {
		return c.voices, nil
	}
	if !c.Available() {
		return nil, ErrUnsupported
	}

	var listArgs []string
	var parse func([]byte) []Voice
	switch c.Engine() {
	case "espeak-ng", "espeak":
		listArgs, parse = []string{"--voices"}, parseEspeakVoices
	case "say":
		listArgs, parse = []string{"-v", "?"}, parseSayVoices
	case "spd-say":
		listArgs, parse = []string{"-L"}, parseSpdVoices
	default:
		c.listed = true
		return nil, nil
	}

	out, err := exec.Command(c.Path, listArgs...).Output()
	if err != nil {
		return nil, err
	}
	c.voices = parse(out)
	c.listed = true
	return c.voices, nil
}

// Speak implements Synthesizer.
func (c *CommandSynthesizer) Speak(u Utterance, done func(err error)) error {
	if !c.Available() {
		return ErrUnsupported
	}

	ctx, cancel := context.WithCancel(context.Background())
	args, stdin := c.buildArgs(u)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	if stdin {
		cmd.Stdin = strings.NewReader(u.Text)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		if ctx.Err() != nil {
			err = nil
		}
		cancel()
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// Cancel implements Synthesizer.
func (c *CommandSynthesizer) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// buildArgs returns the argument list and whether text goes on stdin.
func (c *CommandSynthesizer) buildArgs(u Utterance) ([]string, bool) {
	args := append([]string(nil), c.Args...)
	wpm := strconv.Itoa(int(baseWordsPerMinute * rateOrDefault(u.Rate)))

	switch c.Engine() {
	case "espeak-ng", "espeak":
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.ID)
		}
		return append(args, "-s", wpm, "--stdin"), true
	case "say":
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.ID)
		}
		return append(args, "-r", wpm), true
	case "spd-say":
		if u.Voice != nil {
			args = append(args, "-y", u.Voice.ID)
		}
		return append(args, "-w", u.Text), false
	default:
		return args, true
	}
}

func rateOrDefault(rate float64) float64 {
	if rate <= 0 {
		return 1.0
	}
	return rate
}

// =============================================================================
// VOICE LIST PARSING
// =============================================================================

// parseEspeakVoices reads `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 2  en-us           --/M      English_(America)  gmw/en-US
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}

// parseSayVoices reads `say -v ?`:
//
//	Alex                en_US    # Most people recognize me by my voice.
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		left, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(left)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{
			ID:   name,
			Name: name,
			Lang: strings.ReplaceAll(lang, "_", "-"),
		})
	}
	return voices
}

// parseSpdVoices reads `spd-say -L`:
//
//	NAME                 LANGUAGE  VARIANT
//	English (America)    en-US     none
func parseSpdVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[0] == "NAME" {
			continue
		}
		lang := fields[len(fields)-2]
		name := strings.Join(fields[:len(fields)-2], " ")
		voices = append(voices, Voice{ID: name, Name: name, Lang: lang})
	}
	return voices
}
