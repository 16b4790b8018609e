package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hoybrett99/StudyBuddy/internal/config"
	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `studybuddy init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Shared by the serve, ingest, ask, and mcp commands.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	timeout := cfg.RequestTimeout()

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel, timeout), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, "", timeout), nil
	default:
		// For providers without native embeddings, fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel, timeout), nil
	}
}

// core bundles the components every command builds the same way.
type core struct {
	cfg      *config.Config
	store    *vectordb.ChromemStore
	registry *db.DB
	provider llm.Provider
	embedder *embeddings.Service
	answerer *rag.Answerer
}

func (c *core) vectorDir() string {
	return filepath.Join(c.cfg.DataDir, "vectordb")
}

func (c *core) close() {
	if c.registry != nil {
		c.registry.Close()
	}
}

// buildCore wires the embedder, vector store, registry, LLM provider, and
// answerer from config, loading any previously persisted index. A missing
// index is not an error: the store simply starts empty.
func buildCore(ctx context.Context) (*core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	c := &core{cfg: cfg, store: store}
	if err := store.Load(ctx, c.vectorDir()); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "No existing vector index at %s (starting empty): %v\n", c.vectorDir(), err)
		}
	}

	registry, err := db.Open(filepath.Join(cfg.DataDir, "studybuddy.db"))
	if err != nil {
		return nil, fmt.Errorf("opening document registry: %w", err)
	}
	c.registry = registry

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.RequestTimeout())
	if err != nil {
		c.close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	c.provider = provider

	c.embedder = embeddings.NewService(embedder)
	c.answerer = rag.NewAnswerer(c.embedder, store, provider, rag.Options{
		Model:           cfg.Model,
		DefaultContexts: cfg.DefaultNumContexts,
		MaxContexts:     cfg.MaxNumContexts,
		MaxQuestionLen:  cfg.MaxQuestionLen,
	})

	return c, nil
}
