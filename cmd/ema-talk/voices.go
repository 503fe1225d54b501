package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/koscakluka/ema-talk/core/speech/local"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the local speech voices and the one that would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		engine := local.DetectEngine(cfg.Voice.Engine)
		if engine == nil || !engine.Available() {
			return fmt.Errorf("no local speech engine available (voice.engine=%s)", cfg.Voice.Engine)
		}

		voices, err := engine.Voices(cmd.Context())
		if err != nil {
			return err
		}
		selected := local.SelectVoice(voices, local.VoicePreference{
			LocaleTag:  cfg.Voice.Locale,
			VendorHint: cfg.Voice.VendorHint,
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "\tNAME\tLOCALE\n")
		for _, voice := range voices {
			marker := ""
			if selected != nil && voice.ID == selected.ID {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", marker, voice.Name, voice.Locale)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if selected == nil {
			cmd.Printf("no voice for %s, the engine default is used\n", cfg.Voice.Locale)
		}
		return nil
	},
}
