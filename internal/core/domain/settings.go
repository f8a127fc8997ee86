package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend identifies where corpus and index snapshots live.
type StorageBackend string

// Available storage backends.
const (
	// StorageFile writes JSON and .npy snapshot files.
	StorageFile StorageBackend = "file"

	// StorageSQLite writes a single SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageBolt writes a single bbolt database.
	StorageBolt StorageBackend = "bolt"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageFile, StorageSQLite, StorageBolt:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts embedded per call while indexing.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds long-form section windowing parameters.
type ChunkingSettings struct {
	// MaxTokens is the window size.
	MaxTokens int

	// Overlap is the number of tokens shared by consecutive windows.
	Overlap int

	// Encoding is the tokenizer encoding name.
	Encoding string
}

// Stride returns the distance between window starts.
func (c ChunkingSettings) Stride() int {
	return c.MaxTokens - c.Overlap
}

// Validate returns ErrInvalidConfig when the parameters cannot produce windows.
func (c ChunkingSettings) Validate() error {
	if c.MaxTokens <= 0 || c.Overlap < 0 || c.Overlap >= c.MaxTokens {
		return ErrInvalidConfig
	}
	return nil
}

// StorageSettings holds snapshot storage configuration.
type StorageSettings struct {
	// Backend selects the snapshot store.
	Backend StorageBackend

	// DataDir is the root directory for snapshots.
	DataDir string

	// RawDir is the directory holding raw category files.
	RawDir string
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	// Host is the listen address.
	Host string

	// Port is the listen port.
	Port int
}

// RetrievalSettings holds per-question defaults.
type RetrievalSettings struct {
	// TopK is the default number of chunks retrieved.
	TopK int

	// Temperature is the default generation temperature.
	Temperature float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Chunking holds windowing settings.
	Chunking ChunkingSettings

	// Storage holds snapshot storage settings.
	Storage StorageSettings

	// Server holds HTTP API settings.
	Server ServerSettings

	// Retrieval holds question defaults.
	Retrieval RetrievalSettings
}

// Defaults applied when nothing is configured.
const (
	DefaultBatchSize    = 32
	DefaultMaxTokens    = 512
	DefaultOverlap      = 50
	DefaultEncoding     = "cl100k_base"
	DefaultAnswerTokens = 500
	DefaultLLMTimeout   = 60 * time.Second
	DefaultDataDir      = "data"
	DefaultServerHost   = "0.0.0.0"
	DefaultServerPort   = 8000
)

// DefaultAppSettings returns settings with sensible defaults.
// Both AI providers default to a local Ollama.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultLLMModels()[AIProviderOllama],
			MaxTokens: DefaultAnswerTokens,
			Timeout:   DefaultLLMTimeout,
		},
		Chunking: ChunkingSettings{
			MaxTokens: DefaultMaxTokens,
			Overlap:   DefaultOverlap,
			Encoding:  DefaultEncoding,
		},
		Storage: StorageSettings{
			Backend: StorageFile,
			DataDir: DefaultDataDir,
		},
		Server: ServerSettings{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		Retrieval: RetrievalSettings{
			TopK:        DefaultTopK,
			Temperature: DefaultTemperature,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "phi3:mini",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// SettingEntry is one effective configuration value, as shown by `sage settings show`.
type SettingEntry struct {
	// Key is the dot-separated config key.
	Key string

	// Value is the effective value rendered as text.
	Value string

	// Source is where the value came from: "default", "config" or "env".
	Source string

	// Secret marks values that must be masked when displayed.
	Secret bool
}
