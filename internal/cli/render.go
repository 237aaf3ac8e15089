// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/vasi-tui/internal/config"
	"github.com/jeranaias/vasi-tui/internal/content"
	"github.com/jeranaias/vasi-tui/internal/model"
)

// =============================================================================
// MESSAGE PRINTER
// =============================================================================

// printer writes messages for the line-oriented commands. Markdown is
// rendered only when colors are enabled.
type printer struct {
	out           io.Writer
	renderer      *glamour.TermRenderer
	width         int
	showReasoning bool
}

func newPrinter(out io.Writer, cfg *config.Config) *printer {
	p := &printer{
		out:           out,
		width:         GetTerminalWidth(),
		showReasoning: cfg.UI.ShowReasoning,
	}
	if ColorsEnabled() {
		style := "dark"
		if cfg.UI.Theme == "light" {
			style = "light"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(p.width-4),
		)
		if err == nil {
			p.renderer = r
		}
	}
	return p
}

// message prints one message with its header, attachment, images and
// reasoning trace.
func (p *printer) message(msg model.Message) {
	header := RoleStyle.Render(msg.Role.DisplayName()) + " " + DimStyle.Render(msg.Timestamp.Format("Jan 2 15:04"))
	if msg.ModelUsed != "" {
		header += " " + DimStyle.Render("["+msg.ModelUsed+"]")
	}
	fmt.Fprintln(p.out, header)

	if msg.FileInfo != nil {
		doc := msg.FileInfo.Filename
		if msg.FileInfo.Type != "" {
			doc += " (" + msg.FileInfo.Type + ")"
		}
		fmt.Fprintln(p.out, DimStyle.Render("Document: "+doc))
		if msg.FileInfo.Summary != "" {
			fmt.Fprintln(p.out, DimStyle.Render(WrapText(msg.FileInfo.Summary, p.width)))
		}
	}

	fmt.Fprintln(p.out, p.body(msg))

	for _, img := range content.Images(msg.Text) {
		label := img.Alt
		if label == "" {
			label = "image"
		}
		fmt.Fprintf(p.out, "Image: %s %s\n", label, img.URL)
	}

	if msg.HasReasoning() {
		if p.showReasoning {
			fmt.Fprintln(p.out, DimStyle.Render("Reasoning:"))
			for i, step := range msg.Reasoning {
				fmt.Fprintln(p.out, DimStyle.Render(fmt.Sprintf("  %d. %s", i+1, step)))
			}
		} else {
			fmt.Fprintln(p.out, DimStyle.Render(fmt.Sprintf("(%d reasoning steps)", len(msg.Reasoning))))
		}
	}
}

func (p *printer) body(msg model.Message) string {
	if msg.Role == model.RoleAssistant && p.renderer != nil {
		if out, err := p.renderer.Render(msg.Text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return WrapText(msg.Text, p.width)
}

// notice prints a dim one-line notice.
func (p *printer) notice(text string) {
	fmt.Fprintln(p.out, DimStyle.Render(text))
}
