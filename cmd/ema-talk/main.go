package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/koscakluka/ema-talk/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ema-talk",
	Short: "Chat with the reply backend and hear the answers spoken",
	Long: `ema-talk sends chat messages to the reply backend and plays each answer,
preferring the backend's audio and falling back to the local speech engine.

Configuration is read from (first match wins):
  1. --config flag (explicit path)
  2. ./config.yaml
  3. $HOME/.config/ema-talk/config.yaml

Every key can be overridden with an EMA_ prefixed environment variable,
for example EMA_BACKEND_URL or EMA_AUDIO_OUTPUT.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.Install(logging.NewProvider(os.Stderr, slog.LevelDebug))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ema-talk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
