package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartchat",
	Short: "SmartChat group chat server",
	Long: `SmartChat is a real-time group chat room with an addressable AI
assistant. Messages prefixed with the assistant's name or shorthand
(default "@av") are answered through an Ollama-compatible backend.

Use "smartchat [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
