// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// errNoCommand is returned when no helper command is configured.
var errNoCommand = errors.New("no recognizer command configured")

// LangEnv carries the recognition language to the helper command.
const LangEnv = "VASI_SPEECH_LANG"

// =============================================================================
// COMMAND RECOGNIZER
// =============================================================================

// CommandRecognizer runs a helper that streams JSON results on stdout.
// Lines that are not valid results are skipped.
type CommandRecognizer struct {
	Path   string
	Args   []string
	logger *log.Logger
}

// NewCommandRecognizer resolves command. An empty or missing command
// yields an unavailable recognizer.
func NewCommandRecognizer(command string, logger *log.Logger) *CommandRecognizer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &CommandRecognizer{logger: logger.With("component", "recognizer")}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return r
	}
	if path, err := exec.LookPath(fields[0]); err == nil {
		r.Path = path
		r.Args = fields[1:]
	}
	return r
}

// Available implements Recognizer.
func (r *CommandRecognizer) Available() bool {
	return r.Path != ""
}

// Start implements Recognizer.
func (r *CommandRecognizer) Start(opts RecognitionOptions, events RecognitionEvents) (Recognition, error) {
	if !r.Available() {
		return nil, errNoCommand
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Env = append(os.Environ(), LangEnv+"="+opts.Lang)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	go func() {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			var result SpeechResult
			if err := json.Unmarshal(sc.Bytes(), &result); err != nil {
				r.logger.Debug("skipping recognizer line", "err", err)
				continue
			}
			if result.Validate() != nil {
				continue
			}
			if !opts.Interim && !result.IsFinal {
				continue
			}
			if events.OnResult != nil {
				events.OnResult(result)
			}
			if result.IsFinal && !opts.Continuous {
				cancel()
				break
			}
		}
		err := cmd.Wait()
		if ctx.Err() != nil {
			err = nil
		}
		cancel()
		if events.OnEnd != nil {
			events.OnEnd(err)
		}
	}()

	return &commandRecognition{cancel: cancel}, nil
}

type commandRecognition struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (c *commandRecognition) Stop() {
	c.once.Do(c.cancel)
}
