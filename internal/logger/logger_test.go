// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel(t *testing.T) {
	t.Setenv(LevelEnv, "")
	assert.Equal(t, "info", ResolveLevel("", ""))
	assert.Equal(t, "warn", ResolveLevel("", "WARN"))
	assert.Equal(t, "debug", ResolveLevel("debug", "error"))

	t.Setenv(LevelEnv, "error")
	assert.Equal(t, "error", ResolveLevel("", "debug"), "env beats config")
	assert.Equal(t, "debug", ResolveLevel("debug", ""), "flag beats env")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel("Warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLevel("nonsense"))
}

func TestNew_WritesToFile(t *testing.T) {
	t.Setenv(LevelEnv, "")
	path := filepath.Join(t.TempDir(), "logs", "vasi.log")

	l, closer, err := New(Options{ConfigLevel: "debug", File: path, Fullscreen: true})
	require.NoError(t, err)
	l.With("component", "test").Debug("hello", "n", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=test")
}

func TestNew_FullscreenWithoutFileDiscards(t *testing.T) {
	l, closer, err := New(Options{Fullscreen: true})
	require.NoError(t, err)
	assert.NotNil(t, closer)
	l.Error("not visible")
}
