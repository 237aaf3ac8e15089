// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command, global flags and service wiring.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/logger"
	"github.com/jeranaias/vasi-tui/internal/speech"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env carries the streams and global flags shared by every command.
type Env struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// OpenApp builds the services from a loaded config.
	OpenApp func(cfg *config.Config, lg *log.Logger) (*app.App, error)
	// NewSynthesizer resolves the read-aloud engine for 'vasi voices'.
	NewSynthesizer func(command string) speech.Synthesizer

	configPath string
	logLevel   string
	jsonOut    bool
}

// NewEnv returns an environment bound to the process streams.
func NewEnv() *Env {
	return &Env{
		Out: os.Stdout,
		Err: os.Stderr,
		In:  os.Stdin,
		OpenApp: func(cfg *config.Config, lg *log.Logger) (*app.App, error) {
			return app.New(app.Options{Config: cfg, Logger: lg})
		},
		NewSynthesizer: func(command string) speech.Synthesizer {
			return speech.DetectSynthesizer(command)
		},
	}
}

func (e *Env) synthesizer(command string) speech.Synthesizer {
	if e.NewSynthesizer == nil {
		return speech.DetectSynthesizer(command)
	}
	return e.NewSynthesizer(command)
}

// loadConfig reads the --config file (or the default) and makes it global.
func (e *Env) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// configFile is the path config set writes to.
func (e *Env) configFile() (string, error) {
	if e.configPath != "" {
		return e.configPath, nil
	}
	return config.ConfigPath()
}

// open loads config, builds the logger and the services. The returned
// cleanup flushes storage and closes the log file.
func (e *Env) open(fullscreen bool) (*app.App, func(), error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	lg, closer, err := logger.New(logger.Options{
		FlagLevel:   e.logLevel,
		ConfigLevel: cfg.Log.Level,
		File:        cfg.Log.File,
		Fullscreen:  fullscreen,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	a, err := e.OpenApp(cfg, lg)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			lg.Warn("shutdown incomplete", "err", err)
		}
		closer.Close()
	}
	return a, cleanup, nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree over env.
func NewRootCommand(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "vasi",
		Short: "Terminal client for the Vasi assistant",
		Long: `vasi talks to a Vasi assistant server. Without a subcommand it opens the
full-screen chat with a session sidebar, document attachments, voice input
and read-aloud replies. Conversations are stored locally and shared with
'vasi chat', 'vasi ask' and 'vasi sessions'.`,
		Args:          cobra.NoArgs,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return env.runTUI()
		},
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)
	root.SetIn(env.In)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error(), Hint: "see 'vasi --help'"}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&env.configPath, "config", "", "config file (default ~/.vasi/config.toml)")
	pf.StringVar(&env.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&env.jsonOut, "json", false, "print JSON where supported")

	root.AddCommand(
		newChatCommand(env),
		newAskCommand(env),
		newSessionsCommand(env),
		newStatusCommand(env),
		newConfigCommand(env),
		newLoginCommand(env),
		newLogoutCommand(env),
		newPromptCommand(env),
		newVoicesCommand(env),
		newVersionCommand(env),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return Run(NewEnv(), os.Args[1:])
}

// Run executes args against env, printing any error to env.Err.
func Run(env *Env, args []string) int {
	root := NewRootCommand(env)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			DisplayError(env.Err, err, env.jsonOut)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// VERSION
// =============================================================================

func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}

func newVersionCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":    Version,
				"commit":     GitCommit,
				"build_date": BuildDate,
				"go":         runtime.Version(),
				"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			}
			return OutputJSON(cmd.OutOrStdout(), env.jsonOut, "version", func() (interface{}, error) {
				if !env.jsonOut {
					fmt.Fprintf(cmd.OutOrStdout(), "vasi %s\n", versionString())
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", info["go"], info["platform"])
				}
				return info, nil
			})
		},
	}
}
