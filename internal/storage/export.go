// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/text/cases"

	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// SEARCH
// =============================================================================

// SearchSessions returns the sessions whose title or any message text
// contains query, compared with Unicode case folding. An empty query
// returns every session.
func SearchSessions(sessions []model.Session, query string) []model.Session {
	if query == "" {
		return sessions
	}

	fold := cases.Fold()
	needle := fold.String(query)

	var results []model.Session
	for _, s := range sessions {
		if strings.Contains(fold.String(s.Title), needle) {
			results = append(results, s)
			continue
		}
		for _, msg := range s.Messages {
			if strings.Contains(fold.String(msg.Text), needle) {
				results = append(results, s)
				break
			}
		}
	}
	return results
}

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList renders a numbered table for the CLI. Numbers start
// at 1 and match the order of sessions.
func FormatSessionList(sessions []model.Session) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}

	rule := strings.Repeat("-", 72) + "\n"

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString(rule)
	sb.WriteString(util.PadRight("#", 4) + " " +
		util.PadRight("Created", 17) + " " +
		util.PadRight("Msgs", 5) + " Title\n")
	sb.WriteString(rule)

	for i, s := range sessions {
		sb.WriteString(util.PadRight(strconv.Itoa(i+1), 4) + " " +
			util.PadRight(s.CreatedAt().Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(strconv.Itoa(len(s.Messages)), 5) + " " +
			util.TruncateWidth(s.Title, 40) + "\n")
	}
	return sb.String()
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a session as Markdown with role labels, reasoning
// steps and attachment details.
func ExportMarkdown(s model.Session) string {
	var sb strings.Builder
	sb.WriteString("# " + s.Title + "\n\n")
	sb.WriteString("Created: " + s.CreatedAt().Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range s.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" +
			msg.Timestamp.Format("15:04") + "):\n\n")

		if msg.FileInfo != nil {
			sb.WriteString("> Attachment: " + msg.FileInfo.Filename)
			if msg.FileInfo.Type != "" {
				sb.WriteString(" (" + msg.FileInfo.Type + ")")
			}
			sb.WriteString("\n\n")
		}

		sb.WriteString(msg.Text)
		sb.WriteString("\n\n")

		if msg.HasReasoning() {
			sb.WriteString("<details><summary>Reasoning</summary>\n\n")
			for i, step := range msg.Reasoning {
				sb.WriteString(strconv.Itoa(i+1) + ". " + step + "\n")
			}
			sb.WriteString("\n</details>\n\n")
		}

		sb.WriteString("---\n\n")
	}

	return sb.String()
}

// ExportJSON returns the session as indented JSON.
func ExportJSON(s model.Session) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// =============================================================================
// HTML EXPORT
// =============================================================================

var (
	htmlCodeBlock  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	htmlInlineCode = regexp.MustCompile("`([^`\n]+)`")
)

// ExportHTML renders a session as a standalone page with embedded CSS.
// theme is "light" or "dark".
func ExportHTML(s model.Session, theme string) []byte {
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"generator\" content=\"vasi\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(s.Title))
	sb.WriteString(exportCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s\">\n<main>\n", theme)
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(s.Title))
	fmt.Fprintf(&sb, "<p class=\"meta\">Created %s &middot; %d messages</p>\n",
		s.CreatedAt().Format("January 2, 2006 at 3:04 PM"), len(s.Messages))

	for _, msg := range s.Messages {
		fmt.Fprintf(&sb, "<section class=\"message %s\">\n", msg.Role)
		fmt.Fprintf(&sb, "<div class=\"header\"><span class=\"role\">%s</span> <span class=\"time\">%s</span>",
			html.EscapeString(msg.Role.DisplayName()), msg.Timestamp.Format("15:04"))
		if msg.ModelUsed != "" {
			fmt.Fprintf(&sb, " <span class=\"model\">%s</span>", html.EscapeString(msg.ModelUsed))
		}
		sb.WriteString("</div>\n")

		if msg.FileInfo != nil {
			fmt.Fprintf(&sb, "<div class=\"file\">Attachment: %s</div>\n", html.EscapeString(msg.FileInfo.Filename))
		}
		sb.WriteString(htmlBody(msg.Text, theme))

		if msg.HasReasoning() {
			sb.WriteString("<details><summary>Reasoning</summary>\n<ol>\n")
			for _, step := range msg.Reasoning {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(step))
			}
			sb.WriteString("</ol>\n</details>\n")
		}
		sb.WriteString("</section>\n")
	}

	sb.WriteString("</main>\n</body>\n</html>\n")
	return []byte(sb.String())
}

// htmlBody escapes text, turns fenced blocks into highlighted <pre> and the
// remaining blank-line separated runs into paragraphs.
func htmlBody(text, theme string) string {
	var sb strings.Builder
	rest := text
	for {
		loc := htmlCodeBlock.FindStringSubmatchIndex(rest)
		if loc == nil {
			sb.WriteString(htmlParagraphs(rest))
			break
		}
		sb.WriteString(htmlParagraphs(rest[:loc[0]]))
		lang := rest[loc[2]:loc[3]]
		code := strings.TrimRight(rest[loc[4]:loc[5]], "\n")
		if lang != "" {
			fmt.Fprintf(&sb, "<div class=\"lang\">%s</div>\n", html.EscapeString(lang))
		}
		sb.WriteString(highlightCode(code, lang, theme))
		sb.WriteString("\n")
		rest = rest[loc[1]:]
	}
	return sb.String()
}

// highlightCode renders code with inline styles. Unknown languages are
// guessed from the content.
func highlightCode(code, lang, theme string) string {
	plain := "<pre><code>" + html.EscapeString(code) + "</code></pre>"

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get("monokai")
	if theme == "light" {
		style = chromastyles.Get("github")
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(false)).Format(&buf, style, it); err != nil {
		return plain
	}
	return buf.String()
}

func htmlParagraphs(text string) string {
	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		escaped := html.EscapeString(para)
		escaped = htmlInlineCode.ReplaceAllString(escaped, "<code>$1</code>")
		escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
		sb.WriteString("<p>" + escaped + "</p>\n")
	}
	return sb.String()
}

const exportCSS = `<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
body.dark { background: #1a1b26; color: #c0caf5; }
body.light { background: #f5f5f5; color: #1f2335; }
main { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
.meta, .time, .model, .file, .lang { opacity: 0.7; font-size: 0.85em; }
.message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
.dark .user { background: #24283b; } .dark .assistant { background: #1f2335; }
.light .user { background: #e4e8f7; } .light .assistant { background: #ffffff; }
.role { font-weight: 600; }
pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; background: rgba(0,0,0,0.25); }
code { font-family: "JetBrains Mono", Menlo, monospace; }
</style>
`
