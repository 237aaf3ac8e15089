// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme_ExplicitModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	if !dark.IsDark || dark.Mode() != ModeDark || dark.GlamourStyle() != "dark" {
		t.Errorf("dark theme = %+v", dark.Mode())
	}

	light := NewTheme(ModeLight)
	if light.IsDark || light.Mode() != ModeLight || light.GlamourStyle() != "light" {
		t.Errorf("light theme = %+v", light.Mode())
	}
}

func TestThemeToggle(t *testing.T) {
	theme := NewTheme(ModeDark)
	theme.Toggle()
	if theme.IsDark {
		t.Error("Toggle() from dark should give light")
	}
	if lipgloss.HasDarkBackground() {
		t.Error("Toggle() should update lipgloss background detection")
	}
	theme.Toggle()
	if !theme.IsDark {
		t.Error("second Toggle() should give dark")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ModeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"Reasoning", theme.Reasoning},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"Notice", theme.Notice},
		{"LoginBox", theme.LoginBox},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style should render its content", s.name)
		}
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewTheme(ModeLight)

	tests := []struct {
		width   int
		want    LayoutMode
		sidebar bool
	}{
		{40, LayoutNarrow, false},
		{59, LayoutNarrow, false},
		{60, LayoutMedium, false},
		{99, LayoutMedium, false},
		{100, LayoutWide, true},
		{200, LayoutWide, true},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, 24)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() with width %d = %v, want %v", tc.width, got, tc.want)
		}
		if got := theme.ShowSidebar(); got != tc.sidebar {
			t.Errorf("ShowSidebar() with width %d = %v, want %v", tc.width, got, tc.sidebar)
		}
	}
}

// =============================================================================
// STATUS HELPERS
// =============================================================================

func TestRenderStatus(t *testing.T) {
	if got := RenderStatus(true, "saved"); !strings.Contains(got, StatusIndicators.Success+" saved") {
		t.Errorf("RenderStatus(true) = %q", got)
	}
	if got := RenderStatus(false, "failed"); !strings.Contains(got, StatusIndicators.Error+" failed") {
		t.Errorf("RenderStatus(false) = %q", got)
	}
	if got := RenderWarning("careful"); !strings.Contains(got, "[!] careful") {
		t.Errorf("RenderWarning() = %q", got)
	}
	if got := RenderInfo("note"); !strings.Contains(got, "[i] note") {
		t.Errorf("RenderInfo() = %q", got)
	}
}
