package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               8000,
		MaxFileSizeMB:      50,
		AllowedFileTypes:   []string{"pdf", "txt", "docx"},
		UploadDir:          "uploads",
		DataDir:            ".studybuddy",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		EmbeddingProvider:  ProviderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
		Provider:           ProviderAnthropic,
		Model:              "claude-sonnet-4-20250514",
		MaxTokens:          4096,
		DefaultNumContexts: 4,
		MaxNumContexts:     10,
		MaxQuestionLen:     1000,
		RequestTimeoutSec:  60,
	}
}
