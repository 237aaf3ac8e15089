// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// voices.go - Read-aloud voices.
//
// Command: voices
//
// Lists the voices of the detected speech engine and marks the one
// replies are read with (speech.voice, falling back to US English).

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/vasi-tui/internal/speech"
)

type voiceRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	Selected bool   `json:"selected"`
}

func newVoicesCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List read-aloud voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			synth := env.synthesizer(cfg.Speech.SynthesizerCommand)
			out := cmd.OutOrStdout()

			voices, err := synth.Voices()
			if errors.Is(err, speech.ErrUnsupported) || !synth.Available() {
				return &UsageError{
					Reason: "no speech engine found",
					Hint:   "install espeak-ng or set speech.synthesizer_command",
					Err:    speech.ErrUnsupported,
				}
			}
			if err != nil {
				return fmt.Errorf("list voices: %w", err)
			}

			chosen := speech.SelectVoice(voices, cfg.Speech.Voice)
			rows := make([]voiceRow, len(voices))
			for i, v := range voices {
				rows[i] = voiceRow{
					ID:       v.ID,
					Name:     v.Name,
					Lang:     v.Lang,
					Selected: chosen != nil && v.ID == chosen.ID,
				}
			}

			return OutputJSON(out, env.jsonOut, "voices", func() (interface{}, error) {
				if env.jsonOut {
					return rows, nil
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, DimStyle.Render("The speech engine does not list voices."))
					return rows, nil
				}
				for _, r := range rows {
					mark := "  "
					if r.Selected {
						mark = SuccessStyle.Render("*") + " "
					}
					fmt.Fprintf(out, "%s%-28s %-10s %s\n", mark, r.Name, r.Lang, DimStyle.Render(r.ID))
				}
				return rows, nil
			})
		},
	}
}
