// Package cli implements the steward command-line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/stewardhq/steward/internal/cli.version=1.2.3"
	version = "0.9.0"
	logo    = "\n" +
		"      _                             _\n" +
		"  ___| |_ _____      ____ _ _ __ __| |\n" +
		" / __| __/ _ \\ \\ /\\ / / _` | '__/ _` |\n" +
		" \\__ \\ ||  __/\\ V  V / (_| | | | (_| |\n" +
		" |___/\\__\\___| \\_/\\_/ \\__,_|_|  \\__,_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Steward - autonomous property management agent",
	Long:  color.CyanString(logo) + "\nAn agentic orchestration engine for property management.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(orchestrateCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(actionsCmd)
}
