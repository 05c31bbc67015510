package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any OpenAI-compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderHashing is the built-in feature hashing embedder.
	// It needs no network and is meant for offline use and tests.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// SupportsEmbedding returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbedding() bool {
	return p.IsValid() && p != AIProviderAnthropic
}

// SupportsLLM returns true if the provider can generate text.
func (p AIProvider) SupportsLLM() bool {
	return p.IsValid() && p != AIProviderHashing
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
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderHashing:
		return "Feature hashing (built-in)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Dimensions overrides the model's vector size where the provider allows it.
	Dimensions int

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
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

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerSecond throttles generation calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsLLM() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects where index generations are persisted.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendFile stores generations as files under the data directory.
	IndexBackendFile IndexBackend = "file"

	// IndexBackendSQLite stores generations as blobs in the catalog database.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFile || b == IndexBackendSQLite
}

// IndexSettings holds index build configuration.
type IndexSettings struct {
	// Backend is where generations are persisted.
	Backend IndexBackend

	// Name is the storage location of the published generation.
	Name string

	// Concurrency bounds parallel embedding calls during a rebuild.
	Concurrency int

	// RebuildTimeout bounds a whole rebuild. Zero means no limit.
	RebuildTimeout time.Duration
}

// AnswerSettings holds answer synthesis configuration.
type AnswerSettings struct {
	// TopK is the default number of documents retrieved per question.
	TopK int

	// MaxContextTokens is the budget for retrieved context in the prompt.
	// The best match always keeps its first 256 characters, so very small
	// budgets are exceeded rather than leaving the model with only a tag.
	MaxContextTokens int

	// MaxAnswerTokens caps the model reply.
	MaxAnswerTokens int

	// Temperature is passed to the model.
	Temperature float64

	// Timeout bounds a single model call. Zero means no limit.
	Timeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Answer    AnswerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to the built-in hashing provider so rebuilds work
// offline. The LLM is left unconfigured until the user picks a provider.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      DefaultEmbeddingModels()[AIProviderHashing],
			Dimensions: 512,
		},
		LLM: LLMSettings{},
		Index: IndexSettings{
			Backend:        IndexBackendFile,
			Name:           "catalog",
			Concurrency:    4,
			RebuildTimeout: 10 * time.Minute,
		},
		Answer: AnswerSettings{
			TopK:             DefaultTopK,
			MaxContextTokens: 3000,
			MaxAnswerTokens:  512,
			Temperature:      0,
			Timeout:          60 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderGemini:  "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
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
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
	}
}
