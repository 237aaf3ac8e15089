// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-oriented chat for terminals where the full screen is
// unavailable or unwanted.
//
// Command: chat
//
// Examples:
//   vasi chat                     Continue the most recent conversation
//   vasi chat --new               Start a new conversation
//   vasi chat --session 3         Continue conversation 3 from 'vasi sessions'
//   vasi chat --file report.pdf   Attach a document to the first message
//
// Interactive commands are listed by /help.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/content"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/pipeline"
	"github.com/jeranaias/vasi-tui/internal/speech"
	"github.com/jeranaias/vasi-tui/internal/storage"
	"github.com/jeranaias/vasi-tui/internal/ui/styles"
	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of input per prompt.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides line editing and persistent history on a terminal.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line, adding non-empty input to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// scanReader reads piped input without prompts or history.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scanReader{sc: sc}
}

func (s *scanReader) ReadInput(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() {}

// =============================================================================
// COMMAND
// =============================================================================

type chatOptions struct {
	newSession bool
	session    int
	file       string
}

func newChatCommand(env *Env) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line in the current terminal",
		Long: `Start a line-oriented conversation. Replies are rendered as Markdown on
a terminal. Type /help for commands; Ctrl+C cancels a pending reply and
Ctrl+D exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.runChat(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.newSession, "new", "n", false, "start a new conversation")
	cmd.Flags().IntVarP(&opts.session, "session", "s", 0, "continue conversation N (see 'vasi sessions')")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "attach a document to the first message")
	return cmd
}

func (e *Env) runChat(cmd *cobra.Command, opts chatOptions) error {
	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	var in lineReader
	if IsTTY() && cmd.InOrStdin() == os.Stdin {
		in = NewChatCLI()
	} else {
		in = newScanReader(cmd.InOrStdin())
	}
	defer in.Close()

	r := &repl{
		app:   a,
		out:   cmd.OutOrStdout(),
		print: newPrinter(cmd.OutOrStdout(), a.Config),
		in:    in,
	}

	if a.User() == nil {
		if err := r.login(); err != nil {
			return err
		}
	}
	if err := selectSession(a, opts.session, opts.newSession); err != nil {
		return err
	}
	if opts.file != "" {
		if err := r.attach(opts.file); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-sigs:
				if r.interrupt() {
					fmt.Fprintln(r.out, "\n"+styles.RenderWarning("Cancelled"))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	r.welcome()
	return r.loop(ctx)
}

// selectSession applies --new or --session before a conversation starts.
// An empty active session counts as new.
func selectSession(a *app.App, number int, fresh bool) error {
	if fresh {
		if a.Sessions.Active().IsEmpty() {
			return nil
		}
		if _, err := a.Sessions.CreateSession(); err != nil {
			a.Logger.Warn("new session not saved", "err", err)
		}
		return nil
	}
	if number == 0 {
		return nil
	}
	sessions := a.Sessions.Sessions()
	if number < 1 || number > len(sessions) {
		return &NotFoundError{Resource: "session", ID: strconv.Itoa(number)}
	}
	_, err := a.Sessions.LoadSession(sessions[number-1].ID)
	return err
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	app   *app.App
	out   io.Writer
	print *printer
	in    lineReader

	// Queued document; kept after a failed request.
	attachment *pipeline.Attachment

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (r *repl) welcome() {
	s := r.app.Sessions.Active()
	name := ""
	if u := r.app.User(); u != nil {
		name = u.Name
	}
	fmt.Fprintln(r.out, TitleStyle.Render("Vasi")+" "+DimStyle.Render("signed in as "+name))
	r.print.notice(fmt.Sprintf("Conversation: %s (%d messages). /help lists commands.", s.Title, len(s.Messages)))
	if r.attachment != nil {
		fmt.Fprintln(r.out, styles.RenderInfo("Attached "+r.attachment.Label()+". It is sent with your next message."))
	}
}

func (r *repl) login() error {
	r.print.notice("No user is signed in.")
	name, err := r.in.ReadInput("Name: ")
	if err != nil {
		return notLoggedIn()
	}
	email, err := r.in.ReadInput("Email (optional): ")
	if err != nil {
		email = ""
	}
	u, err := r.app.Login(name, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Signed in as "+u.Name+"."))
	return nil
}

func (r *repl) loop(ctx context.Context) error {
	for {
		line, err := r.in.ReadInput(PromptStyle.Render("vasi> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or end of piped input
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				return err
			}
			return nil
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "" && r.attachment == nil:
			continue
		case strings.HasPrefix(line, "/"):
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if quit {
				return nil
			}
		case strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit"):
			return nil
		default:
			r.send(ctx, line)
		}
	}
}

// interrupt cancels the pending request, reporting whether there was one.
func (r *repl) interrupt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

func (r *repl) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	return ctx, func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel()
	}
}

func (r *repl) send(ctx context.Context, text string) {
	ctx, done := r.begin(ctx)
	defer done()

	wasImage := r.app.Pipeline.ImageMode()
	r.print.notice("Vasi is thinking...")
	res, err := r.app.Pipeline.Send(ctx, text, r.attachment)
	if err != nil {
		if !errors.Is(err, pipeline.ErrEmptyInput) {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		return
	}
	if !wasImage && r.app.Pipeline.ImageMode() {
		r.print.notice("Image mode on: prompts are sent as image requests (/image to turn off).")
	}
	if !res.Failed() {
		r.attachment = nil
	}
	r.finish(res)
}

func (r *repl) finish(res pipeline.Result) {
	if res.Failed() {
		r.app.Logger.Debug("request failed", "err", res.Err)
	}
	fmt.Fprintln(r.out)
	r.print.message(res.Reply)
	fmt.Fprintln(r.out)
}

func (r *repl) attach(path string) error {
	path, err := util.ExpandHome(path)
	if err != nil {
		return err
	}
	att, err := pipeline.AttachFile(path)
	if err != nil {
		return fmt.Errorf("cannot attach: %w", err)
	}
	r.attachment = att
	return nil
}

// lastMessage returns the newest message with the given role.
func (r *repl) lastMessage(role model.Role) (model.Message, bool) {
	msgs := r.app.Sessions.Messages(r.app.Sessions.ActiveID())
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const replHelp = `Commands:
  /new                 Start a new conversation
  /sessions            List conversations
  /load N              Switch to conversation N
  /history             Print the current conversation
  /attach PATH         Send a document with the next message
  /detach              Drop the queued document
  /edit TEXT           Replace your last message and regenerate the reply
  /image               Toggle image mode
  /prompt [TEXT|clear] Show, set or clear the system prompt
  /reasoning           Toggle reasoning traces
  /copy [N]            Copy code block N of the last reply (default 1)
  /speak               Read the last reply aloud
  /stop                Stop reading aloud
  /logout              Sign out and exit
  /quit                Exit`

// command runs one slash command and reports whether to exit.
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "help", "h", "?":
		fmt.Fprintln(r.out, replHelp)

	case "quit", "q", "exit":
		return true, nil

	case "new", "n":
		if _, err := r.app.Sessions.CreateSession(); err != nil {
			r.app.Logger.Warn("new session not saved", "err", err)
		}
		r.print.notice("New conversation.")

	case "sessions", "list":
		fmt.Fprint(r.out, storage.FormatSessionList(r.app.Sessions.Sessions()))

	case "load", "l":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, &UsageError{Reason: "usage: /load N"}
		}
		if err := selectSession(r.app, n, false); err != nil {
			return false, err
		}
		s := r.app.Sessions.Active()
		r.print.notice(fmt.Sprintf("Conversation: %s (%d messages).", s.Title, len(s.Messages)))

	case "history":
		msgs := r.app.Sessions.Messages(r.app.Sessions.ActiveID())
		if len(msgs) == 0 {
			r.print.notice("No messages yet.")
		}
		for _, msg := range msgs {
			r.print.message(msg)
			fmt.Fprintln(r.out)
		}

	case "attach", "a":
		if arg == "" {
			return false, &UsageError{Reason: "usage: /attach PATH"}
		}
		if err := r.attach(arg); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, styles.RenderInfo("Attached "+r.attachment.Label()+". It is sent with your next message."))

	case "detach":
		r.attachment = nil
		r.print.notice("Attachment removed.")

	case "edit":
		last, ok := r.lastMessage(model.RoleUser)
		if !ok {
			return false, errors.New("nothing to edit")
		}
		ctx, done := r.begin(ctx)
		defer done()
		res, err := r.app.Pipeline.Edit(ctx, last.ID, arg)
		if err != nil {
			return false, err
		}
		r.finish(res)

	case "image", "img":
		if r.app.Pipeline.ToggleImageMode() {
			r.print.notice("Image mode on.")
		} else {
			r.print.notice("Image mode off.")
		}

	case "prompt":
		return false, r.prompt(arg)

	case "reasoning":
		r.print.showReasoning = !r.print.showReasoning
		if r.print.showReasoning {
			r.print.notice("Reasoning traces shown.")
		} else {
			r.print.notice("Reasoning traces hidden.")
		}

	case "copy", "y":
		return false, r.copyCode(arg)

	case "speak":
		last, ok := r.lastMessage(model.RoleAssistant)
		if !ok {
			return false, errors.New("no reply to read")
		}
		if _, err := r.app.Speaker.Toggle(last.ID, last.Text); err != nil {
			if errors.Is(err, speech.ErrUnsupported) {
				return false, errors.New("text-to-speech is not available; install espeak-ng or set speech.synthesizer_command")
			}
			return false, err
		}

	case "stop":
		r.app.Speaker.Stop()

	case "logout":
		if err := r.app.Logout(); err != nil {
			return false, err
		}
		r.print.notice("Signed out.")
		return true, nil

	default:
		return false, &UsageError{Reason: "unknown command /" + name, Hint: "type /help for the list"}
	}
	return false, nil
}

func (r *repl) prompt(arg string) error {
	switch strings.ToLower(arg) {
	case "":
		if p := r.app.Pipeline.SystemPrompt(); p != "" {
			fmt.Fprintln(r.out, "System prompt: "+p)
		} else {
			r.print.notice("No system prompt set.")
		}
		return nil
	case "clear":
		arg = ""
	}
	if err := r.app.SetSystemPrompt(arg); err != nil {
		return err
	}
	if arg == "" {
		r.print.notice("System prompt cleared.")
	} else {
		r.print.notice("System prompt saved.")
	}
	return nil
}

func (r *repl) copyCode(arg string) error {
	last, ok := r.lastMessage(model.RoleAssistant)
	if !ok {
		return errors.New("no reply to copy from")
	}
	n := 1
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 1 {
			return &UsageError{Reason: "usage: /copy [N]"}
		}
		n = v
	}
	block, err := content.CopyCodeBlock(r.app.Clipboard, last.Text, n-1)
	switch {
	case errors.Is(err, content.ErrNoCodeBlock):
		return fmt.Errorf("no code block %d in the last reply", n)
	case errors.Is(err, content.ErrClipboardUnsupported):
		return errors.New("clipboard is not available in this terminal")
	case err != nil:
		return err
	}
	r.print.notice(fmt.Sprintf("Copied %s block to clipboard.", block.Label()))
	return nil
}
