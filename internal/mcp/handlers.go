package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

// handleSearchDocuments performs semantic retrieval over the uploaded documents.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	numResults := request.GetInt("num_results", 4)
	if numResults <= 0 {
		numResults = 4
	}

	results, err := s.answerer.Retrieve(ctx, query, numResults, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. Upload documents first with `studybuddy ingest` or the /upload endpoint."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleAskDocuments answers a question grounded in the uploaded documents.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	numContexts := request.GetInt("num_contexts", 0)

	answer, err := s.answerer.Answer(ctx, question, numContexts, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(answer.Text)
	if len(answer.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, src := range answer.Sources {
			sb.WriteString(fmt.Sprintf("- %s (%.1f%%)\n", src.DocumentName, src.RelevanceScore*100))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleListDocuments returns the registered documents, newest first.
func (s *Server) handleListDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.registry.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}

	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents uploaded yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d document(s):\n", len(docs)))
	for _, doc := range docs {
		sb.WriteString(fmt.Sprintf("- %s (%s, %d chunks, id %s)\n",
			doc.Filename, doc.FileType, doc.ChunkCount, doc.ID))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts retrieval results into a text format optimized
// for AI agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Document: %s (chunk %d)\n", r.DocumentName, r.ChunkIndex))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Score*100))
		sb.WriteString("\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
