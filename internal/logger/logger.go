// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger configures structured logging for vasi.
// Components receive a *log.Logger and tag it with
// Logger.With("component", name); nothing logs through a global.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// LevelEnv names the environment variable consulted after the flag.
const LevelEnv = "VASI_LOG_LEVEL"

// Options control logger construction.
type Options struct {
	// Level from the --log-level flag; takes precedence over everything.
	FlagLevel string

	// Level from the config file.
	ConfigLevel string

	// File receives output when set.
	File string

	// Fullscreen means the terminal is owned by the TUI: without a file,
	// output is discarded.
	Fullscreen bool
}

// New builds a logger. The returned closer releases the log file and is
// never nil.
func New(opts Options) (*log.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	switch {
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, closer, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, closer, err
		}
		out, closer = f, f
	case opts.Fullscreen:
		out = io.Discard
	}

	l := log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(ResolveLevel(opts.FlagLevel, opts.ConfigLevel)),
		ReportTimestamp: opts.File != "",
		TimeFormat:      "2006-01-02 15:04:05",
	})
	if opts.File == "" {
		l.SetStyles(styles())
	}
	return l, closer, nil
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ResolveLevel applies flag > VASI_LOG_LEVEL > config > "info".
func ResolveLevel(flagLevel, configLevel string) string {
	for _, level := range []string{flagLevel, os.Getenv(LevelEnv), configLevel} {
		if level != "" {
			return strings.ToLower(level)
		}
	}
	return "info"
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// styles gives terminal output short colored level labels.
func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DBG").Foreground(lipgloss.Color("8"))
	s.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INF").Foreground(lipgloss.Color("12"))
	s.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WRN").Foreground(lipgloss.Color("11"))
	s.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERR").Foreground(lipgloss.Color("9")).Bold(true)
	return s
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
