package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoybrett99/StudyBuddy/internal/llm"
)

// ToolCall is the closed set of tool invocations the planner may emit.
// Each variant carries decoded, validated arguments; execution dispatches
// on the concrete type, so adding a tool means adding a variant and every
// type switch over ToolCall stops compiling until it handles it.
type ToolCall interface {
	isToolCall()
}

// SearchDocumentsCall retrieves chunks for a single focused query and
// answers from them.
type SearchDocumentsCall struct {
	Query      string
	NumResults int
}

// MultiSearchCall runs several focused queries, for multi-part or
// comparison questions.
type MultiSearchCall struct {
	Queries []string
}

// PracticeQuestionsCall generates practice questions about a topic from
// the stored material.
type PracticeQuestionsCall struct {
	Topic        string
	NumQuestions int
}

func (SearchDocumentsCall) isToolCall()   {}
func (MultiSearchCall) isToolCall()       {}
func (PracticeQuestionsCall) isToolCall() {}

const (
	toolSearchDocuments   = "search_documents"
	toolMultiSearch       = "multi_search"
	toolPracticeQuestions = "generate_practice_questions"
)

// ToolDefs returns the tool declarations offered to the planner.
func ToolDefs() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        toolSearchDocuments,
			Description: "Search through uploaded study materials for relevant information. Use this for factual questions, definitions, and explanations.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query (be specific and focused)",
					},
					"num_results": map[string]any{
						"type":        "integer",
						"description": "Number of relevant chunks to retrieve (default 4, use 6-8 for complex questions)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolMultiSearch,
			Description: "Perform multiple searches for multi-part questions or comparisons. Use when the question asks about several different topics.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"queries": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of focused search queries",
					},
				},
				"required": []string{"queries"},
			},
		},
		{
			Name:        toolPracticeQuestions,
			Description: "Generate practice questions based on document content. Use when user asks for test questions, practice, or self-assessment.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic": map[string]any{
						"type":        "string",
						"description": "Topic to generate questions about",
					},
					"num_questions": map[string]any{
						"type":        "integer",
						"description": "Number of questions to generate",
					},
				},
				"required": []string{"topic"},
			},
		},
	}
}

// ParseToolCall decodes and validates one requested invocation into its
// ToolCall variant. An unknown tool name or missing required argument is an
// error for that call only.
func ParseToolCall(use llm.ToolUse) (ToolCall, error) {
	switch use.Name {
	case toolSearchDocuments:
		var args struct {
			Query      string `json:"query"`
			NumResults int    `json:"num_results"`
		}
		if err := json.Unmarshal(use.Input, &args); err != nil {
			return nil, fmt.Errorf("%s: malformed arguments: %w", use.Name, err)
		}
		if strings.TrimSpace(args.Query) == "" {
			return nil, fmt.Errorf("%s: missing required argument 'query'", use.Name)
		}
		if args.NumResults <= 0 {
			args.NumResults = 4
		}
		return SearchDocumentsCall{Query: args.Query, NumResults: args.NumResults}, nil

	case toolMultiSearch:
		var args struct {
			Queries []string `json:"queries"`
		}
		if err := json.Unmarshal(use.Input, &args); err != nil {
			return nil, fmt.Errorf("%s: malformed arguments: %w", use.Name, err)
		}
		var queries []string
		for _, q := range args.Queries {
			if strings.TrimSpace(q) != "" {
				queries = append(queries, q)
			}
		}
		if len(queries) == 0 {
			return nil, fmt.Errorf("%s: missing required argument 'queries'", use.Name)
		}
		return MultiSearchCall{Queries: queries}, nil

	case toolPracticeQuestions:
		var args struct {
			Topic        string `json:"topic"`
			NumQuestions int    `json:"num_questions"`
		}
		if err := json.Unmarshal(use.Input, &args); err != nil {
			return nil, fmt.Errorf("%s: malformed arguments: %w", use.Name, err)
		}
		if strings.TrimSpace(args.Topic) == "" {
			return nil, fmt.Errorf("%s: missing required argument 'topic'", use.Name)
		}
		if args.NumQuestions <= 0 {
			args.NumQuestions = 5
		}
		return PracticeQuestionsCall{Topic: args.Topic, NumQuestions: args.NumQuestions}, nil

	default:
		return nil, fmt.Errorf("unknown tool %q", use.Name)
	}
}
