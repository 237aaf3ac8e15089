// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the vasi TUI.

Colors are Lip Gloss AdaptiveColor values. A Theme pins the light or dark
variant (from config or the detected terminal background) and can be toggled
at runtime, after which every style is rebuilt.

# Colors (colors.go)

  - Indigo - brand, active session, user bubbles
  - Teal - assistant replies, model tags, reasoning
  - Amber - image mode, notices
  - Rose - errors, speech playback
  - Emerald - success, voice input

Status lines always pair color with an ASCII indicator ([OK], [X], [!], [i]).

# Layout (theme.go)

The sidebar is shown only in the wide layout (100 columns or more).
*/
package styles
