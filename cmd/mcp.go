package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/hoybrett99/StudyBuddy/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing
document search and question answering tools for AI agents like
Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildCore(context.Background())
		if err != nil {
			return err
		}
		defer c.close()

		if c.store.Count() == 0 {
			fmt.Fprintln(os.Stderr, "Warning: vector index is empty; search results will be empty. Run `studybuddy ingest` first.")
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "studybuddy MCP server started on stdio (chunks=%d)\n", c.store.Count())

		srv := mcpserver.NewServer(c.answerer, c.registry)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
