// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// account.go - Local user record and system prompt.
//
// Commands:
//   login NAME [--email ADDR]   Store the user record
//   logout                      Remove it; conversations are kept
//   prompt [show]               Print the system prompt
//   prompt set TEXT             Replace it
//   prompt clear                Remove it

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(env *Env) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Sign in with a display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := env.open(false)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := a.Login(strings.Join(args, " "), email)
			if err != nil {
				return &UsageError{Reason: err.Error(), Hint: "a name is required", Err: err}
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, env.jsonOut, "login", func() (interface{}, error) {
				if !env.jsonOut {
					fmt.Fprintf(out, "%s Signed in as %s\n", SuccessStyle.Render("[OK]"), user.Name)
				}
				return user, nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func newLogoutCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; conversations are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := env.open(false)
			if err != nil {
				return err
			}
			defer cleanup()

			was := a.User()
			if err := a.Logout(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return OutputJSON(out, env.jsonOut, "logout", func() (interface{}, error) {
				if !env.jsonOut {
					if was == nil {
						fmt.Fprintln(out, DimStyle.Render("Not signed in."))
					} else {
						fmt.Fprintf(out, "%s Signed out %s\n", SuccessStyle.Render("[OK]"), was.Name)
					}
				}
				return map[string]bool{"signed_out": was != nil}, nil
			})
		},
	}
}

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

func newPromptCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show or change the system prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.updatePrompt(cmd, "show", "")
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the system prompt",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.updatePrompt(cmd, "show", "")
			},
		},
		&cobra.Command{
			Use:   "set <text>",
			Short: "Replace the system prompt",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return env.updatePrompt(cmd, "set", strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the system prompt",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.updatePrompt(cmd, "clear", "")
			},
		},
	)
	return cmd
}

func (e *Env) updatePrompt(cmd *cobra.Command, action, text string) error {
	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	switch action {
	case "set":
		err = a.SetSystemPrompt(strings.TrimSpace(text))
	case "clear":
		err = a.SetSystemPrompt("")
	}
	if err != nil {
		return err
	}

	prompt := a.Pipeline.SystemPrompt()
	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "prompt "+action, func() (interface{}, error) {
		if !e.jsonOut {
			switch {
			case action == "clear":
				fmt.Fprintf(out, "%s System prompt cleared\n", SuccessStyle.Render("[OK]"))
			case action == "set":
				fmt.Fprintf(out, "%s System prompt set\n", SuccessStyle.Render("[OK]"))
			case prompt == "":
				fmt.Fprintln(out, DimStyle.Render("No system prompt."))
			default:
				fmt.Fprintln(out, prompt)
			}
		}
		return map[string]string{"system_prompt": prompt}, nil
	})
}
