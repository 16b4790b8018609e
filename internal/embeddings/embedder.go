package embeddings

import "context"

// Embedder turns text into vectors for similarity search. Implementations
// wrap one backend (OpenAI's API or a local Ollama instance).
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of every vector this embedder produces.
	Dimensions() int

	// Name identifies the backing model.
	Name() string
}

var (
	_ Embedder = (*OpenAIEmbedder)(nil)
	_ Embedder = (*OllamaEmbedder)(nil)
)
