package driven

import "github.com/custodia-labs/shelfwise/internal/core/domain"

// AIConfigValidator validates AI provider configurations by testing
// connectivity to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider described by config.
	// Returns nil when no LLM is configured.
	ValidateLLM(config *domain.LLMSettings) error
}
