// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/shelfwise/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/shelfwise/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/shelfwise/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/shelfwise/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/shelfwise/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/shelfwise/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/shelfwise/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues, e.g. an unreachable LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates both AI services from settings. The embedding service is
// required because every rebuild and query needs it. A missing or unreachable
// LLM is only a warning: retrieval keeps working and answers fail with
// domain.ErrLLMUnavailable.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured. Run 'shelfwise settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	result.EmbeddingService = embedder

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case llm == nil:
		result.Warnings = append(result.Warnings, "no LLM configured, questions cannot be answered")
	default:
		result.LLMService = llm
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'shelfwise settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'shelfwise settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return ratelimit.WrapEmbedding(svc, ratelimit.Config{RequestsPerSecond: settings.RequestsPerSecond}), nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'shelfwise settings wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'shelfwise settings wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return ratelimit.WrapLLM(svc, ratelimit.Config{RequestsPerSecond: settings.RequestsPerSecond}), nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use hashing, ollama, openai or gemini")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return asEmbedding(hashing.New(hashing.Config{
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}))

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return asEmbedding(openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}))

	case domain.AIProviderGemini:
		return createGeminiEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return asLLM(openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}))

	case domain.AIProviderAnthropic:
		return asLLM(anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}))

	case domain.AIProviderGemini:
		return asLLM(geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		}))

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
// Known models get their native dimension when none is configured.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return asEmbedding(geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
		APIKey:     settings.APIKey,
		Model:      settings.Model,
		Dimensions: dimensions,
	}))
}

// asEmbedding converts a constructor result to the port type without
// leaking a typed nil on error.
func asEmbedding[S driven.EmbeddingService](svc S, err error) (driven.EmbeddingService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// asLLM is asEmbedding for LLM services.
func asLLM[S driven.LLMService](svc S, err error) (driven.LLMService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}
