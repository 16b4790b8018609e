package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/hoybrett99/StudyBuddy/internal/ingest"
	"github.com/hoybrett99/StudyBuddy/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [patterns...]",
	Short: "Batch-index local documents into the vector store",
	Long: `Ingests local files matching the given glob patterns (doublestar
syntax, e.g. "notes/**/*.pdf"). Each file is extracted, chunked,
embedded, and indexed; the resulting index is persisted to the data
directory for the serve, ask, and mcp commands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	c, err := buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	files, err := resolvePatterns(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files matched.")
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d files to ingest\n", len(files))
	}

	pipeline := ingest.NewPipeline(c.cfg, c.embedder, c.store, c.registry)

	reporter := progress.NewReporter()
	reporter.Start(len(files))

	var ingested, failed int
	var totalChunks int
	var failures []error
	for i, path := range files {
		reporter.Update(i+1, filepath.Base(path))

		content, err := os.ReadFile(path)
		if err != nil {
			failed++
			failures = append(failures, fmt.Errorf("%s: %w", path, err))
			continue
		}

		result, err := pipeline.Ingest(ctx, filepath.Base(path), content)
		if err != nil {
			failed++
			failures = append(failures, fmt.Errorf("%s: %w", path, err))
			continue
		}
		ingested++
		totalChunks += result.ChunksCreated
	}
	reporter.Finish()

	if err := c.store.Persist(ctx, c.vectorDir()); err != nil {
		return fmt.Errorf("persisting vector index: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Files ingested: %d\n", ingested)
	fmt.Printf("  Files failed:   %d\n", failed)
	fmt.Printf("  Chunks indexed: %d\n", totalChunks)
	fmt.Printf("  Duration:       %s\n", time.Since(start).Round(time.Millisecond))

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "\nFailures (%d):\n", len(failures))
		for _, e := range failures {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
	}

	return nil
}

// resolvePatterns expands doublestar globs into a sorted, deduplicated
// list of regular files. A literal path with no glob characters is
// accepted as-is so `studybuddy ingest notes.pdf` works.
func resolvePatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
				matches = []string{pattern}
			}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
