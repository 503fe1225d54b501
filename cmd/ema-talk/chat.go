package main

import (
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var a *app
		model := tui.NewModel(
			func(text string) { _ = a.session.SubmitUserMessage(cmd.Context(), text) },
			func() { a.orchestrator.Cancel() },
		)
		program := tui.NewProgram(model)

		a, err = newApp(cmd.Context(), cfg, appOptions{
			driver:    avatar.NewFallback(program.ShowStatus),
			onChange:  program.ShowTranscript,
			onTalking: program.ShowTalking,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		return program.Run()
	},
}
