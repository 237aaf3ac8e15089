// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Assistant API and local state.
//
// Command: status
// Aliases: s
//
// Sections:
//   API:      base URL, health (GET /), version, models
//   Service:  orchestrator and document processor (GET /api/status)
//   Local:    user, storage backend, conversations, speech engines

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/app"
	"github.com/jeranaias/vasi-tui/internal/assistant"
)

// statusTimeout bounds each status call.
const statusTimeout = 10 * time.Second

// StatusReport is the --json payload of vasi status.
type StatusReport struct {
	BaseURL  string                    `json:"base_url"`
	Online   bool                      `json:"online"`
	Error    string                    `json:"error,omitempty"`
	Health   *assistant.HealthResponse `json:"health,omitempty"`
	Service  *assistant.StatusResponse `json:"service,omitempty"`
	User     string                    `json:"user,omitempty"`
	Storage  string                    `json:"storage"`
	Sessions int                       `json:"sessions"`
	Speech   map[string]bool           `json:"speech"`
}

func newStatusCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Check the assistant API and local state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.runStatus(cmd)
		},
	}
}

func (e *Env) runStatus(cmd *cobra.Command) error {
	a, cleanup, err := e.open(false)
	if err != nil {
		return err
	}
	defer cleanup()

	report := collectStatus(cmd.Context(), a)
	out := cmd.OutOrStdout()
	return OutputJSON(out, e.jsonOut, "status", func() (interface{}, error) {
		if !e.jsonOut {
			printStatus(out, report)
		}
		return report, nil
	})
}

func collectStatus(ctx context.Context, a *app.App) StatusReport {
	if ctx == nil {
		ctx = context.Background()
	}
	r := StatusReport{
		BaseURL:  a.Client.BaseURL(),
		Storage:  a.Config.Storage.Backend,
		Sessions: a.Sessions.Len(),
		Speech: map[string]bool{
			"synthesis":   a.Speaker.Supported(),
			"recognition": a.VoiceInput.Supported(),
		},
	}
	if u := a.User(); u != nil {
		r.User = u.Name
	}

	hctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	health, err := a.Client.Health(hctx)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Online = true
	r.Health = health

	sctx, cancel2 := context.WithTimeout(ctx, statusTimeout)
	defer cancel2()
	if svc, err := a.Client.Status(sctx); err == nil {
		r.Service = svc
	} else {
		a.Logger.Debug("status endpoint unavailable", "err", err)
	}
	return r
}

func printStatus(out io.Writer, r StatusReport) {
	fmt.Fprintln(out, TitleStyle.Render("Vasi Status"))

	fmt.Fprintln(out, SectionStyle.Render("API"))
	fmt.Fprintln(out, RenderField("URL", r.BaseURL))
	if !r.Online {
		fmt.Fprintln(out, RenderLabel("Health")+" "+RenderStatus("offline")+" "+DimStyle.Render(r.Error))
	} else {
		fmt.Fprintln(out, RenderLabel("Health")+" "+RenderStatus("ok")+" "+ValueStyle.Render(r.Health.Status))
		if r.Health.Name != "" {
			fmt.Fprintln(out, RenderField("Service", strings.TrimSpace(r.Health.Name+" "+r.Health.Version)))
		}
		if len(r.Health.Models) > 0 {
			keys := make([]string, 0, len(r.Health.Models))
			for k := range r.Health.Models {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(out, RenderField("Model "+k, r.Health.Models[k]))
			}
		}
		if len(r.Health.Features) > 0 {
			fmt.Fprintln(out, RenderField("Features", strings.Join(r.Health.Features, ", ")))
		}
	}

	if r.Service != nil {
		fmt.Fprintln(out, SectionStyle.Render("Service"))
		fmt.Fprintln(out, RenderLabel("Status")+" "+RenderStatus(r.Service.Status))
		if dp := r.Service.DocumentProcessor; dp != nil {
			ocr := "off"
			if dp.OCREnabled {
				ocr = "on"
			}
			fmt.Fprintln(out, RenderField("OCR", ocr))
			fmt.Fprintln(out, RenderField("Max upload", fmt.Sprintf("%.0f MB", dp.MaxFileSizeMB)))
			if len(dp.SupportedFormats) > 0 {
				fmt.Fprintln(out, RenderField("Formats", strings.Join(dp.SupportedFormats, ", ")))
			}
		}
	}

	fmt.Fprintln(out, SectionStyle.Render("Local"))
	user := r.User
	if user == "" {
		user = "(not signed in)"
	}
	fmt.Fprintln(out, RenderField("User", user))
	fmt.Fprintln(out, RenderField("Storage", r.Storage))
	fmt.Fprintln(out, RenderField("Conversations", fmt.Sprint(r.Sessions)))
	fmt.Fprintln(out, RenderField("Read aloud", availability(r.Speech["synthesis"])))
	fmt.Fprintln(out, RenderField("Voice input", availability(r.Speech["recognition"])))
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not available"
}
