package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "topicrush",
	Short: "Topic-rush game session server",
	Long:  `HTTP + WebSocket API for game sessions and round scoring. Commands: serve, migrate, migrate-create.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateCreateCmd)
}

// Execute runs the root command and returns the error for main to log.Fatal.
func Execute() error {
	return rootCmd.Execute()
}
