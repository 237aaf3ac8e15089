// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for vasi.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Assistant endpoint and request timeout
//   - StorageConfig: Persistence backend, data directory and key namespace
//   - SpeechConfig: Voice preferences and engine commands
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VASI_*), including those from ./.env
//   - ~/.vasi/config.toml (or the file given with --config)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := assistant.NewClientWithConfig(&assistant.ClientConfig{
//	    BaseURL: cfg.API.BaseURL,
//	    Timeout: cfg.API.Timeout(),
//	})
package config
