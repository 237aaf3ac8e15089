// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/vasi-tui/internal/assistant"
	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/session"
)

// ErrorReply is the assistant text substituted for any failed request.
const ErrorReply = "Error: Could not connect to AI backend. Please make sure the API is running."

// Sentinel errors. All of them leave the pipeline state unchanged.
var (
	ErrBusy            = errors.New("a request is already in progress")
	ErrEmptyInput      = errors.New("nothing to send")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotEditable     = errors.New("only user messages can be edited")
)

// =============================================================================
// PORTS
// =============================================================================

// Assistant is the remote service.
type Assistant interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
	ChatWithDocument(ctx context.Context, req assistant.DocumentRequest) (*assistant.ChatResponse, error)
}

// Sessions is the subset of the session store the pipeline mutates.
type Sessions interface {
	ActiveID() string
	Messages(id string) []model.Message
	SetMessages(id string, messages []model.Message) error
	AppendMessage(id string, msg model.Message) error
}

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request is one outbound call prepared by Begin or BeginEdit.
type Request struct {
	// SessionID is the session the reply is bound to.
	SessionID string

	// Prompt is the text sent, including any image prefix.
	Prompt string

	// Context is the history string. Empty for document requests.
	Context string

	// Attachment is non-nil for document requests.
	Attachment *Attachment

	// UserMessage is the appended (or edited) user turn.
	UserMessage model.Message

	// Edit is true for edit-and-regenerate.
	Edit bool

	// ImageModeActivated is true when this prompt switched image mode on.
	ImageModeActivated bool
}

// Result is what Complete appended.
type Result struct {
	SessionID string
	Reply     model.Message

	// Err is the request failure already rendered as ErrorReply.
	Err error
}

// Failed reports whether the reply is the error placeholder.
func (r Result) Failed() bool {
	return r.Err != nil
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline owns the loading gate, image mode and the system prompt.
type Pipeline struct {
	mu sync.Mutex

	sessions Sessions
	client   Assistant
	logger   *log.Logger

	systemPrompt string
	imageMode    bool
	loading      bool
}

// New creates a pipeline over the given store and assistant.
func New(sessions Sessions, client Assistant, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		sessions: sessions,
		client:   client,
		logger:   logger.With("component", "pipeline"),
	}
}

// Loading reports whether a request is outstanding.
func (p *Pipeline) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// ImageMode reports whether prompts are being prefixed with "image of ".
func (p *Pipeline) ImageMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imageMode
}

// SetImageMode switches image mode explicitly.
func (p *Pipeline) SetImageMode(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageMode = on
}

// ToggleImageMode flips image mode and returns the new value.
func (p *Pipeline) ToggleImageMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageMode = !p.imageMode
	return p.imageMode
}

// SystemPrompt returns the custom instructions sent with each chat request.
func (p *Pipeline) SystemPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.systemPrompt
}

// SetSystemPrompt replaces the custom instructions.
func (p *Pipeline) SetSystemPrompt(prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.systemPrompt = prompt
}

// =============================================================================
// SEND
// =============================================================================

// Begin appends a user message for text to the active session and marks
// the pipeline loading. It fails with ErrEmptyInput when text is blank
// and no attachment is given, and with ErrBusy while loading.
func (p *Pipeline) Begin(text string, att *Attachment) (*Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return nil, ErrBusy
	}
	if strings.TrimSpace(text) == "" && att == nil {
		return nil, ErrEmptyInput
	}

	sessionID := p.sessions.ActiveID()
	history := p.sessions.Messages(sessionID)

	user := model.NewUserMessage(text)
	if err := p.sessions.AppendMessage(sessionID, user); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		// Message is in memory; storage failure is retried on the next change
		p.logger.Warn("persist after user message failed", "err", err)
	}

	req := p.prepareLocked(sessionID, text, history, att)
	req.UserMessage = user
	p.loading = true

	p.logger.Debug("request started", "session", sessionID, "document", att != nil, "image_mode", p.imageMode)
	return req, nil
}

// Send runs Begin, Execute and Complete. The returned error is only
// ErrBusy, ErrEmptyInput or a missing active session; request failures
// appear as Result.Err with an error reply appended.
func (p *Pipeline) Send(ctx context.Context, text string, att *Attachment) (Result, error) {
	req, err := p.Begin(text, att)
	if err != nil {
		return Result{}, err
	}
	resp, err := p.Execute(ctx, req)
	return p.Complete(req, resp, err), nil
}

// =============================================================================
// EDIT AND REGENERATE
// =============================================================================

// BeginEdit replaces the text of a user message in the active session,
// drops every message after it and prepares a new request for it.
func (p *Pipeline) BeginEdit(messageID, newText string) (*Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return nil, ErrBusy
	}
	if strings.TrimSpace(newText) == "" {
		return nil, ErrEmptyInput
	}

	sessionID := p.sessions.ActiveID()
	messages := p.sessions.Messages(sessionID)

	idx := -1
	for i := range messages {
		if messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrMessageNotFound
	}
	if messages[idx].Role != model.RoleUser {
		return nil, ErrNotEditable
	}

	messages[idx].Text = newText
	truncated := messages[:idx+1]
	if err := p.sessions.SetMessages(sessionID, truncated); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		p.logger.Warn("persist after edit failed", "err", err)
	}

	// The edited turn is already in the history, so it is the last context line
	req := p.prepareLocked(sessionID, newText, truncated, nil)
	req.UserMessage = truncated[idx]
	req.Edit = true
	p.loading = true

	p.logger.Debug("regenerate started", "session", sessionID, "index", idx)
	return req, nil
}

// Edit runs BeginEdit, Execute and Complete. On success the session holds
// exactly idx+2 messages: everything up to the edited one plus the reply.
func (p *Pipeline) Edit(ctx context.Context, messageID, newText string) (Result, error) {
	req, err := p.BeginEdit(messageID, newText)
	if err != nil {
		return Result{}, err
	}
	resp, err := p.Execute(ctx, req)
	return p.Complete(req, resp, err), nil
}

// =============================================================================
// EXECUTE AND COMPLETE
// =============================================================================

// Execute performs the network call for req. It reads no pipeline state
// and may run on any goroutine.
func (p *Pipeline) Execute(ctx context.Context, req *Request) (*assistant.ChatResponse, error) {
	if req.Attachment != nil {
		rc, err := req.Attachment.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return p.client.ChatWithDocument(ctx, assistant.DocumentRequest{
			Message:  req.Prompt,
			Filename: req.Attachment.Name,
			File:     rc,
		})
	}

	return p.client.Chat(ctx, assistant.ChatRequest{
		Message:      req.Prompt,
		Context:      req.Context,
		UseReasoning: true,
	})
}

// Complete appends the reply for req to its originating session and
// clears the loading state. A failed request gets ErrorReply.
func (p *Pipeline) Complete(req *Request, resp *assistant.ChatResponse, reqErr error) Result {
	var reply model.Message
	if reqErr != nil || resp == nil {
		if reqErr == nil {
			reqErr = assistant.ErrInvalidResponse
		}
		p.logger.Error("assistant request failed", "session", req.SessionID, "err", reqErr)
		reply = model.NewAssistantMessage(ErrorReply)
	} else {
		reply = model.NewAssistantMessage(resp.Response)
		reply.Reasoning = resp.Reasoning
		reply.ModelUsed = resp.ModelUsed
		reply.FileInfo = resp.FileInfo()
	}

	if err := p.sessions.AppendMessage(req.SessionID, reply); err != nil {
		p.logger.Warn("could not store reply", "session", req.SessionID, "err", err)
	}

	p.mu.Lock()
	p.loading = false
	p.mu.Unlock()

	return Result{SessionID: req.SessionID, Reply: reply, Err: reqErr}
}

// prepareLocked builds the outbound request. Image detection and the
// context string only apply to plain chat requests. Caller holds p.mu.
func (p *Pipeline) prepareLocked(sessionID, text string, history []model.Message, att *Attachment) *Request {
	req := &Request{SessionID: sessionID, Attachment: att}

	if att != nil {
		req.Prompt = text
		if strings.TrimSpace(text) == "" {
			req.Prompt = assistant.DefaultDocumentPrompt
		}
		return req
	}

	if !p.imageMode && DetectImageIntent(text) {
		p.imageMode = true
		req.ImageModeActivated = true
		p.logger.Info("image mode activated by prompt")
	}
	req.Prompt = EffectivePrompt(text, p.imageMode)
	req.Context = BuildContext(history, p.systemPrompt)
	return req
}
