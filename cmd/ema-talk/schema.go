package main

import (
	"fmt"

	"github.com/koscakluka/ema-talk/core/backend"
	"github.com/koscakluka/ema-talk/core/widget"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [backend|widget]",
	Short:     "Print the JSON Schema of the backend or widget messages",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"backend", "widget"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "backend"
		if len(args) == 1 {
			target = args[0]
		}

		var data []byte
		var err error
		switch target {
		case "widget":
			data, err = widget.SchemaJSON()
		default:
			data, err = backend.SchemaJSON()
		}
		if err != nil {
			return fmt.Errorf("failed to render schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
