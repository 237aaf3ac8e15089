// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One question, one reply.
//
// Command: ask
//
// Examples:
//   vasi ask "What is a goroutine?"
//   vasi ask --file contract.pdf "List the termination clauses"
//   vasi ask --file scan.png              Uses "Analyze this document"
//   vasi ask --session 2 "And in Rust?"   Continue conversation 2
//   echo "summarize this" | vasi ask -
//   vasi ask --json "hello"               Reply as JSON

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/util"
)

type askOptions struct {
	session int
	file    string
	image   bool
}

// askResult is the --json payload.
type askResult struct {
	SessionID string        `json:"session_id"`
	Reply     model.Message `json:"reply"`
	ImageMode bool          `json:"image_mode"`
}

func newAskCommand(env *Env) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the reply",
		Long: `Send one message and print the reply. The exchange is stored as a new
conversation unless --session is given. Use "-" to read the question from
standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runAsk(cmd, opts, args)
		},
	}
	cmd.Flags().IntVarP(&opts.session, "session", "s", 0, "continue conversation N (see 'vasi sessions')")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "attach a document")
	cmd.Flags().BoolVar(&opts.image, "image", false, "send as an image request")
	return cmd
}

func (e *Env) runAsk(cmd *cobra.Command, opts askOptions, args []string) error {
	question, err := readQuestion(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if question == "" && opts.file == "" {
		return &UsageError{Reason: "no question given", Hint: `vasi ask "your question"`}
	}

	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := a.RequireUser(); err != nil {
		return notLoggedIn()
	}

	var att *pipeline.Attachment
	if opts.file != "" {
		path, err := util.ExpandHome(opts.file)
		if err != nil {
			return err
		}
		if att, err = pipeline.AttachFile(path); err != nil {
			return fmt.Errorf("cannot attach: %w", err)
		}
	}

	if err := selectSession(a, opts.session, opts.session == 0); err != nil {
		return err
	}
	if opts.image {
		a.Pipeline.SetImageMode(true)
	}

	out := cmd.OutOrStdout()
	res, err := a.Pipeline.Send(cmd.Context(), question, att)
	if err != nil {
		return err
	}

	return OutputJSON(out, e.jsonOut, "ask", func() (interface{}, error) {
		if !e.jsonOut {
			newPrinter(out, a.Config).message(res.Reply)
		}
		if res.Failed() {
			return nil, res.Err
		}
		return askResult{
			SessionID: res.SessionID,
			Reply:     res.Reply,
			ImageMode: a.Pipeline.ImageMode(),
		}, nil
	})
}

// readQuestion joins args, or reads stdin for "-".
func readQuestion(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read question: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}
