// Package cmd wires the CLI commands: serve, ingest and version.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/knowassist/knowassist/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "knowassist",
	Short: "knowassist - retrieval-augmented question answering over your documents",
	Long: `knowassist indexes documents into a vector store and answers
questions about them with source citations.

Run 'knowassist serve' to start the HTTP API, or 'knowassist ingest'
to index files from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment lowers
// the level.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
