package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
)

const systemPrompt = `You are Study Buddy, an intelligent AI tutor assistant. Your job is to help students learn from their uploaded study materials.

Your capabilities:
1. **search_documents**: Find specific information in study materials
2. **multi_search**: Search multiple topics for comparison questions
3. **generate_practice_questions**: Create test questions from content

Guidelines:
- For simple questions: use search_documents with a clear query
- For "what's the difference between X and Y": use multi_search with separate queries for X and Y
- For broad questions: break into focused sub-queries
- For practice/test questions: use generate_practice_questions
- Always explain your reasoning before calling tools
- Be encouraging and educational

Analyze the user's question and decide which tool(s) to use.`

// Result is the orchestrator's terminal output. ToolCallCount counts every
// invocation the planner requested, including ones that failed.
type Result struct {
	Answer        string       `json:"answer"`
	Sources       []rag.Source `json:"sources"`
	ToolCallCount int          `json:"tool_call_count"`
}

// toolOutcome is one executed (or failed) invocation, in planner order.
type toolOutcome struct {
	name string
	text string
	err  error
}

// Orchestrator runs a single plan/execute/synthesize pass over a question.
// The planner decides which retrieval tools to call; their outputs are
// combined into one final answer by a second model call.
type Orchestrator struct {
	provider llm.ToolProvider
	answerer *rag.Answerer
	model    string
}

func NewOrchestrator(provider llm.ToolProvider, answerer *rag.Answerer, model string) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		answerer: answerer,
		model:    model,
	}
}

// Process answers one question. history carries prior conversation turns
// and may be empty.
func (o *Orchestrator) Process(ctx context.Context, question string, history []llm.Message) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &rag.InvalidQueryError{Field: "question", Reason: "must not be empty"}
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	plan, err := o.provider.CompleteWithTools(ctx, llm.ToolRequest{
		Model:    o.model,
		Messages: messages,
		Tools:    ToolDefs(),
	})
	if err != nil {
		return nil, err
	}

	// No tools requested: the planner's own text is the answer.
	if len(plan.ToolUses) == 0 {
		return &Result{Answer: plan.Text, Sources: []rag.Source{}}, nil
	}

	outcomes, sources := o.execute(ctx, plan.ToolUses)

	answer, err := o.synthesize(ctx, question, outcomes)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:        answer,
		Sources:       sources,
		ToolCallCount: len(plan.ToolUses),
	}, nil
}

// execute runs each requested invocation in order. A malformed or failing
// call is recorded as a failed outcome; it never aborts the pass.
func (o *Orchestrator) execute(ctx context.Context, uses []llm.ToolUse) ([]toolOutcome, []rag.Source) {
	var outcomes []toolOutcome
	var sources []rag.Source

	for _, use := range uses {
		call, err := ParseToolCall(use)
		if err != nil {
			log.Printf("agent: tool call rejected: %v", err)
			outcomes = append(outcomes, toolOutcome{name: use.Name, err: err})
			continue
		}

		text, callSources, err := o.run(ctx, call)
		if err != nil {
			log.Printf("agent: tool %s failed: %v", use.Name, err)
			outcomes = append(outcomes, toolOutcome{name: use.Name, err: err})
			continue
		}
		outcomes = append(outcomes, toolOutcome{name: use.Name, text: text})
		sources = append(sources, callSources...)
	}

	return outcomes, sources
}

// run dispatches one validated call. The type switch is exhaustive over
// ToolCall variants.
func (o *Orchestrator) run(ctx context.Context, call ToolCall) (string, []rag.Source, error) {
	switch c := call.(type) {
	case SearchDocumentsCall:
		// The planner sometimes asks for more results than the answerer
		// accepts. Clamp rather than fail the whole call.
		numResults := c.NumResults
		if max := o.answerer.MaxContexts(); numResults > max {
			numResults = max
		}
		ans, err := o.answerer.Answer(ctx, c.Query, numResults, nil)
		if err != nil {
			return "", nil, err
		}
		return ans.Text, ans.Sources, nil

	case MultiSearchCall:
		var parts []string
		var sources []rag.Source
		for _, q := range c.Queries {
			ans, err := o.answerer.Answer(ctx, q, 0, nil)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, fmt.Sprintf("Search %q:\n%s", q, ans.Text))
			sources = append(sources, ans.Sources...)
		}
		return strings.Join(parts, "\n\n"), sources, nil

	case PracticeQuestionsCall:
		ans, err := o.answerer.PracticeQuestions(ctx, c.Topic, c.NumQuestions)
		if err != nil {
			return "", nil, err
		}
		return ans.Text, ans.Sources, nil

	default:
		return "", nil, fmt.Errorf("unhandled tool call %T", call)
	}
}

// synthesize combines the question with all tool outputs into one final
// answer. Failed invocations are reported to the model so it can answer
// from whatever succeeded.
func (o *Orchestrator) synthesize(ctx context.Context, question string, outcomes []toolOutcome) (string, error) {
	var b strings.Builder
	b.WriteString("The student asked: ")
	b.WriteString(question)
	b.WriteString("\n\nTool results:\n\n")
	for i, out := range outcomes {
		if out.err != nil {
			fmt.Fprintf(&b, "[%d] %s failed: %v\n\n", i+1, out.name, out.err)
			continue
		}
		fmt.Fprintf(&b, "[%d] %s:\n%s\n\n", i+1, out.name, out.text)
	}
	b.WriteString("Combine these results into one clear, coherent answer for the student. Do not mention the tools themselves.")

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model: o.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
