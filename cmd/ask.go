package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoybrett99/StudyBuddy/internal/llm"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your ingested documents",
	Long: `Answers a question from the command line using the persisted vector
index. Run ` + "`studybuddy ingest`" + ` first to index your documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("contexts", 0, "number of passages to ground the answer on")
	askCmd.Flags().StringSlice("document", nil, "restrict to specific document IDs (repeatable)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, err := buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if c.store.Count() == 0 {
		fmt.Println("Vector index is empty. Run `studybuddy ingest` first.")
		return nil
	}

	numContexts, _ := cmd.Flags().GetInt("contexts")
	documentIDs, _ := cmd.Flags().GetStringSlice("document")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	answer, err := c.answerer.Answer(ctx, args[0], numContexts, documentIDs)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for i, src := range answer.Sources {
			fmt.Printf("  %d. [%.1f%%] %s\n", i+1, src.RelevanceScore*100, src.DocumentName)
		}
	}

	if verbose {
		in, out := answer.InputTokens, answer.OutputTokens
		if in == 0 && out == 0 {
			// Backends without usage reporting (Ollama) get a rough estimate.
			in = llm.EstimateTokens(args[0])
			out = llm.EstimateTokens(answer.Text)
		}
		fmt.Fprintf(os.Stderr, "\nTokens: %d input, %d output\n", in, out)
		if cost := llm.EstimateCost(c.cfg.Model, in, out); cost > 0 {
			fmt.Fprintf(os.Stderr, "Estimated cost: $%.4f\n", cost)
		}
	}
	return nil
}
