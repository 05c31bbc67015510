package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderHashing} {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider  AIProvider
		apiKey    bool
		local     bool
		embedding bool
		llm       bool
	}{
		{AIProviderOllama, false, true, true, true},
		{AIProviderOpenAI, true, false, true, true},
		{AIProviderAnthropic, true, false, false, true},
		{AIProviderGemini, true, false, true, true},
		{AIProviderHashing, false, true, true, false},
		{AIProvider("nope"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.embedding, tt.provider.SupportsEmbedding())
			assert.Equal(t, tt.llm, tt.provider.SupportsLLM())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "sk"}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestIndexBackend_IsValid(t *testing.T) {
	assert.True(t, IndexBackendFile.IsValid())
	assert.True(t, IndexBackendSQLite.IsValid())
	assert.False(t, IndexBackend("s3").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.True(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, IndexBackendFile, s.Index.Backend)
	assert.Equal(t, DefaultTopK, s.Answer.TopK)
	assert.Positive(t, s.Index.Concurrency)
	assert.Positive(t, s.Answer.MaxContextTokens)
}

func TestDefaultModels_CoverProviders(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	assert.Equal(t, 768, EmbeddingDimensions()["text-embedding-004"])
}
