package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// ToolProvider is implemented by providers that support model-driven tool
// invocation. Callers that need tools should type-assert for it.
type ToolProvider interface {
	Provider
	// CompleteWithTools runs a completion in which the model may request
	// tool invocations instead of, or alongside, plain text.
	CompleteWithTools(ctx context.Context, req ToolRequest) (*ToolResponse, error)
}
