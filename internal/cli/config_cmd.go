// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration management.
//
// Command: config
// Subcommands:
//   show              Effective configuration (file, env, defaults)
//   get KEY           One value, e.g. api.base_url
//   set KEY VALUE     Write a value to the config file
//   keys              Every settable key
//   path              Location of the config file

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/config"
)

func newConfigCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.showConfig(cmd)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.showConfig(cmd)
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return &UsageError{Reason: err.Error(), Hint: "see 'vasi config keys'", Err: err}
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, env.jsonOut, "config get", func() (interface{}, error) {
				if !env.jsonOut {
					fmt.Fprintln(out, value)
				}
				return map[string]interface{}{"key": args[0], "value": value}, nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one value to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.setConfig(cmd, args[0], args[1])
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return OutputJSON(out, env.jsonOut, "config keys", func() (interface{}, error) {
				all := config.GetAllKeys()
				if !env.jsonOut {
					for _, k := range all {
						fmt.Fprintln(out, k)
					}
				}
				return all, nil
			})
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := env.configFile()
			if err != nil {
				return err
			}
			_, statErr := os.Stat(p)
			exists := statErr == nil
			out := cmd.OutOrStdout()
			return OutputJSON(out, env.jsonOut, "config path", func() (interface{}, error) {
				if !env.jsonOut {
					fmt.Fprintln(out, p)
					if !exists {
						fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("(not created yet; defaults in use)"))
					}
				}
				return map[string]interface{}{"path": p, "exists": exists}, nil
			})
		},
	}

	cmd.AddCommand(show, get, set, keys, path)
	return cmd
}

func (e *Env) showConfig(cmd *cobra.Command) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "config show", func() (interface{}, error) {
		if !e.jsonOut {
			for _, k := range config.GetAllKeys() {
				v, _ := cfg.Get(k)
				fmt.Fprintln(out, RenderLabel(k, 28)+" "+ValueStyle.Render(fmt.Sprint(v)))
			}
		}
		return cfg, nil
	})
}

// setConfig edits the file contents only, so environment overrides in
// effect for this process are not written back.
func (e *Env) setConfig(cmd *cobra.Command, key, value string) error {
	path, err := e.configFile()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Reason: err.Error(), Hint: "see 'vasi config keys'", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "config set", func() (interface{}, error) {
		if !e.jsonOut {
			fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
		}
		return map[string]string{"key": key, "value": value, "path": path}, nil
	})
}
