// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Stored conversations.
//
// Command: sessions
// Aliases: session, ls
//
// Examples:
//   vasi sessions                          List conversations, newest first
//   vasi sessions show 2                   Print conversation 2
//   vasi sessions search invoice           Conversations mentioning "invoice"
//   vasi sessions export 2 --format json   Export conversation 2 as JSON
//   vasi sessions export 1 -o chat.md      Write Markdown to a file
//   vasi sessions export 1 --format html -o chat.html

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/storage"
	"github.com/jeranaias/vasi-tui/internal/util"
)

// sessionSummary is one row of the --json listing.
type sessionSummary struct {
	Number   int       `json:"number"`
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created"`
	Messages int       `json:"messages"`
	Active   bool      `json:"active"`
}

func summarize(a *app.App, sessions []model.Session) []sessionSummary {
	activeID := a.Sessions.ActiveID()
	all := a.Sessions.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		number := 0
		for i := range all {
			if all[i].ID == s.ID {
				number = i + 1
				break
			}
		}
		out = append(out, sessionSummary{
			Number:   number,
			ID:       s.ID,
			Title:    s.Title,
			Created:  s.CreatedAt(),
			Messages: len(s.Messages),
			Active:   s.ID == activeID,
		})
	}
	return out
}

func newSessionsCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "ls"},
		Short:   "List, show, search and export conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.listSessions(cmd, "")
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.listSessions(cmd, "")
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "List conversations whose title or messages contain query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.listSessions(cmd, strings.Join(args, " "))
		},
	}

	show := &cobra.Command{
		Use:   "show <N>",
		Short: "Print conversation N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.showSession(cmd, args[0])
		},
	}

	var format, output string
	export := &cobra.Command{
		Use:   "export <N>",
		Short: "Export conversation N as Markdown, JSON or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.exportSession(cmd, args[0], format, output)
		},
	}
	export.Flags().StringVar(&format, "format", "md", "md, json or html")
	export.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	cmd.AddCommand(list, search, show, export)
	return cmd
}

func (e *Env) listSessions(cmd *cobra.Command, query string) error {
	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	sessions := storage.SearchSessions(a.Sessions.Sessions(), query)
	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "sessions", func() (interface{}, error) {
		rows := summarize(a, sessions)
		if e.jsonOut {
			return rows, nil
		}
		if query != "" && len(sessions) == 0 {
			fmt.Fprintf(out, "No conversations match %q.\n", query)
			return rows, nil
		}
		if query == "" {
			fmt.Fprint(out, storage.FormatSessionList(sessions))
			return rows, nil
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%-4d %s  %s\n", r.Number, r.Created.Format("2006-01-02 15:04"), util.TruncateWidth(r.Title, 50))
		}
		return rows, nil
	})
}

// lookupSession resolves a 1-based number from the listing.
func lookupSession(a *app.App, arg string) (model.Session, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Session{}, &UsageError{Reason: "session must be a number", Hint: "see 'vasi sessions'"}
	}
	sessions := a.Sessions.Sessions()
	if n < 1 || n > len(sessions) {
		return model.Session{}, &NotFoundError{Resource: "session", ID: arg}
	}
	return sessions[n-1], nil
}

func (e *Env) showSession(cmd *cobra.Command, arg string) error {
	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := lookupSession(a, arg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "sessions show", func() (interface{}, error) {
		if e.jsonOut {
			return s, nil
		}
		fmt.Fprintln(out, TitleStyle.Render(s.Title))
		if len(s.Messages) == 0 {
			fmt.Fprintln(out, DimStyle.Render("No messages."))
		}
		p := newPrinter(out, a.Config)
		for _, msg := range s.Messages {
			p.message(msg)
			fmt.Fprintln(out)
		}
		return s, nil
	})
}

// theme is the configured UI theme, or dark when config cannot be read.
func (e *Env) theme() string {
	cfg, err := e.loadConfig()
	if err != nil {
		return "dark"
	}
	return cfg.UI.Theme
}

func (e *Env) exportSession(cmd *cobra.Command, arg, format, output string) error {
	var render func(model.Session) ([]byte, error)
	switch strings.ToLower(format) {
	case "md", "markdown":
		render = func(s model.Session) ([]byte, error) { return []byte(storage.ExportMarkdown(s)), nil }
	case "json":
		render = storage.ExportJSON
	case "html":
		render = func(s model.Session) ([]byte, error) { return storage.ExportHTML(s, e.theme()), nil }
	default:
		return &UsageError{Reason: "unsupported format " + format, Hint: "use --format md, json or html"}
	}

	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := lookupSession(a, arg)
	if err != nil {
		return err
	}
	data, err := render(s)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	path, err := util.ExpandHome(output)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %q to %s\n", SuccessStyle.Render("[OK]"), s.Title, path)
	return nil
}
