// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/assistant"
	"github.com/jeranaias/vasi-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid arguments or an unusable environment.
type UsageError struct {
	Reason string
	Hint   string
	Err    error
}

func (e *UsageError) Error() string {
	if e.Hint != "" {
		return e.Reason + "\nHint: " + e.Hint
	}
	return e.Reason
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// notLoggedIn is returned by commands that send messages without a user.
func notLoggedIn() error {
	return &UsageError{
		Reason: app.ErrNotLoggedIn.Error(),
		Hint:   "run 'vasi login NAME' first",
		Err:    app.ErrNotLoggedIn,
	}
}

// NotFoundError reports a missing resource, such as a session number.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON object in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if !jsonMode {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
		return
	}

	output := map[string]interface{}{
		"success":    false,
		"error":      err.Error(),
		"error_type": errorType(err),
		"exit_code":  GetExitCode(err),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func errorType(err error) string {
	var usage *UsageError
	var notFound *NotFoundError
	var clientErr *assistant.ClientError
	switch {
	case errors.As(err, &usage):
		return "usage_error"
	case errors.As(err, &notFound):
		return "not_found_error"
	case errors.As(err, &clientErr):
		return "api_" + clientErr.Type.String()
	default:
		return "generic_error"
	}
}

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return ExitNotFound
	}
	var validation config.ValidateErrors
	if errors.As(err, &validation) {
		return ExitConfigError
	}
	if errors.Is(err, assistant.ErrTimeout) {
		return ExitTimeout
	}
	if errors.Is(err, assistant.ErrNotRunning) || errors.Is(err, assistant.ErrHTTPStatus) {
		return ExitNetworkError
	}
	var clientErr *assistant.ClientError
	if errors.As(err, &clientErr) {
		return ExitNetworkError
	}
	return ExitGeneralError
}
