// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the assistant client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeConnection
	ErrTypeHTTPStatus
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not_running"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeHTTPStatus:
		return "http_status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning      = &ClientError{Type: ErrTypeNotRunning, Message: "assistant API is not reachable"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCanceled        = &ClientError{Type: ErrTypeCanceled, Message: "request canceled"}
	ErrHTTPStatus      = &ClientError{Type: ErrTypeHTTPStatus, Message: "unexpected HTTP status"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL uses the IPv4 loopback to avoid IPv6 resolution delays.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultTimeout bounds one chat request. Document analysis is slow.
	DefaultTimeout = 300 * time.Second
)

// ClientConfig holds configuration options for the assistant client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout for one request (default: 300s)
	Timeout time.Duration

	// UserAgent is sent with every request when set
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the assistant API. It is safe for concurrent use.
//
// Example:
//
//	client := assistant.NewClient()
//	if err := client.CheckRunning(ctx); err != nil {
//	    fmt.Println("assistant not available:", err)
//	}
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the API answers GET / with 200.
func (c *Client) CheckRunning(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// Health calls GET / and returns the service description.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return nil, err
	}
	var result HealthResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status calls GET /api/status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/status", nil, "")
	if err != nil {
		return nil, err
	}
	var result StatusResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a prompt with its context string to POST /api/chat.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	return c.doChat(req)
}

// ChatWithDocument uploads a document with a question to
// POST /api/chat-with-document.
func (c *Client) ChatWithDocument(ctx context.Context, docReq DocumentRequest) (*ChatResponse, error) {
	if docReq.File == nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "no document supplied"}
	}

	message := docReq.Message
	if strings.TrimSpace(message) == "" {
		message = DefaultDocumentPrompt
	}
	filename := docReq.Filename
	if filename == "" {
		filename = "document"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("message", message); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build form", Cause: err}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build form", Cause: err}
	}
	if _, err := io.Copy(part, docReq.File); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to read document", Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build form", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat-with-document", &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return c.doChat(req)
}

// doChat runs a chat request and validates the payload.
func (c *Client) doChat(req *http.Request) (*ChatResponse, error) {
	var raw map[string]json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	// "response" must be present and be a string
	field, ok := raw["response"]
	if !ok {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "response field missing"}
	}
	var text string
	if err := json.Unmarshal(field, &text); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "response field is not a string", Cause: err}
	}

	// Re-decode the known fields; raw preserves the original bytes
	encoded, _ := json.Marshal(raw)
	var result ChatResponse
	if err := json.Unmarshal(encoded, &result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &result, nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	return req, nil
}

// do sends req and decodes a 200 JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
			return &ClientError{Type: ErrTypeHTTPStatus, Message: resp.Status + ": " + body.Detail}
		}
		return &ClientError{Type: ErrTypeHTTPStatus, Message: "request failed: " + resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeCanceled, Message: ErrCanceled.Message, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
}
