package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level StudyBuddy configuration, corresponding to
// .studybuddy.yml. It is constructed once at startup and passed by
// injection into every component constructor.
type Config struct {
	// Server settings.
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`

	// Upload settings.
	MaxFileSizeMB    int      `yaml:"max_file_size_mb" koanf:"max_file_size_mb"`
	AllowedFileTypes []string `yaml:"allowed_file_types" koanf:"allowed_file_types"`
	UploadDir        string   `yaml:"upload_dir" koanf:"upload_dir"`

	// Data directory for the SQLite registry and the persisted vector store.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	// Chunking settings.
	ChunkSize    int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`

	// Embedding settings.
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// LLM settings.
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	Model     string       `yaml:"model" koanf:"model"`
	MaxTokens int          `yaml:"max_tokens" koanf:"max_tokens"`

	// RAG settings.
	DefaultNumContexts int `yaml:"default_num_contexts" koanf:"default_num_contexts"`
	MaxNumContexts     int `yaml:"max_num_contexts" koanf:"max_num_contexts"`
	MaxQuestionLen     int `yaml:"max_question_len" koanf:"max_question_len"`

	// RequestTimeoutSec bounds every external call (LLM, embedding backend).
	RequestTimeoutSec int `yaml:"request_timeout_sec" koanf:"request_timeout_sec"`

	// RequestsPerMinute caps LLM calls; 0 disables the limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}
