package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoybrett99/StudyBuddy/internal/agent"
	"github.com/hoybrett99/StudyBuddy/internal/ingest"
	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the StudyBuddy HTTP API server",
	Long: `Starts the HTTP server with the upload, ask, agent, and WebSocket chat
endpoints. The vector index is loaded from the data directory on startup
and persisted back on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		c, err := buildCore(ctx)
		if err != nil {
			return err
		}
		defer c.close()

		port, _ := cmd.Flags().GetInt("port")
		if port > 0 {
			c.cfg.Port = port
		}

		// The agent endpoint needs tool use; providers without it still
		// serve the plain ask endpoint.
		var orchestrator *agent.Orchestrator
		if tp, ok := c.provider.(llm.ToolProvider); ok {
			orchestrator = agent.NewOrchestrator(tp, c.answerer, c.cfg.Model)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: provider %s does not support tool use; /agent/ask disabled\n", c.provider.Name())
		}

		pipeline := ingest.NewPipeline(c.cfg, c.embedder, c.store, c.registry)
		srv := server.New(c.cfg, pipeline, c.answerer, orchestrator, c.store, c.registry)

		// Graceful shutdown: persist the index before exiting.
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-sigCtx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			if err := c.store.Persist(context.Background(), c.vectorDir()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: persisting vector index: %v\n", err)
			}
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "studybuddy v%s starting on %s:%d\n", Version, c.cfg.Host, c.cfg.Port)
		fmt.Fprintf(os.Stderr, "  Provider:  %s (%s)\n", c.cfg.Provider, c.cfg.Model)
		fmt.Fprintf(os.Stderr, "  Chunks:    %d indexed\n", c.store.Count())

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
