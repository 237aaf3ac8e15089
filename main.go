// vasi - A terminal client for the Vasi assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/jeranaias/vasi-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// VASI_* overrides may live in a local .env; a missing file is fine
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
