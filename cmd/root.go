package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "Document question answering over your study material",
	Long: `StudyBuddy ingests your study documents (PDF, TXT, DOCX), builds a
semantic vector index over them, and answers questions grounded in
their content. It runs as an HTTP API with a WebSocket chat, a
one-shot CLI, or an MCP server for AI agent integration.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".studybuddy.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
