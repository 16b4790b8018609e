package llm

import (
	"encoding/json"
	"fmt"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// ToolDef declares a tool the model may invoke. InputSchema is a JSON Schema
// object describing the tool's arguments.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolRequest is a completion request that additionally offers the model a
// set of tools to invoke.
type ToolRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Tools       []ToolDef
}

// ToolUse is one tool invocation requested by the model. Input is the raw
// JSON arguments as emitted, left for the caller to decode and validate.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResponse is the result of a tool-capable completion. Text holds the
// concatenated free-form text blocks; ToolUses holds requested invocations
// in emission order. Either may be empty.
type ToolResponse struct {
	Text         string
	ToolUses     []ToolUse
	InputTokens  int
	OutputTokens int
	Model        string
	StopReason   string
}

// GenerationError wraps a failed language-model call so callers can tell
// backend failures apart from validation errors.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
