// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/vasi-tui/internal/ui/chat"
)

// runTUI opens the full-screen chat and blocks until it exits.
func (e *Env) runTUI() error {
	if err := RequireTTY("the chat screen", "use 'vasi chat' for a line-oriented session or 'vasi ask' for one question"); err != nil {
		return err
	}

	a, cleanup, err := e.open(true)
	if err != nil {
		return err
	}
	defer cleanup()

	m := chat.New(a)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Shutdown()
	} else {
		m.Shutdown()
	}
	if err != nil {
		a.Logger.Error("chat screen exited with error", "err", err)
	}
	return err
}
