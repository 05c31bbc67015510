package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMRPS          = "llm.requests_per_second"
	keyIndexBackend    = "index.backend"
	keyIndexName       = "index.name"
	keyIndexWorkers    = "index.concurrency"
	keyIndexTimeout    = "index.rebuild_timeout"
	keyAnswerTopK      = "answer.top_k"
	keyAnswerCtxTokens = "answer.max_context_tokens"
	keyAnswerMaxTokens = "answer.max_answer_tokens"
	keyAnswerTemp      = "answer.temperature"
	keyAnswerTimeout   = "answer.timeout"
)

// settingKind is how a single setting is parsed by Set.
type settingKind int

const (
	kindString settingKind = iota
	kindProvider
	kindBackend
	kindPositiveInt
	kindFloat
	kindDuration
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDims:       kindPositiveInt,
	keyEmbedRPS:        kindFloat,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyLLMRPS:          kindFloat,
	keyIndexBackend:    kindBackend,
	keyIndexName:       kindString,
	keyIndexWorkers:    kindPositiveInt,
	keyIndexTimeout:    kindDuration,
	keyAnswerTopK:      kindPositiveInt,
	keyAnswerCtxTokens: kindPositiveInt,
	keyAnswerMaxTokens: kindPositiveInt,
	keyAnswerTemp:      kindFloat,
	keyAnswerTimeout:   kindDuration,
}

// SettingsKeys returns every key accepted by Set, sorted.
func SettingsKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	overlay     driven.SettingsOverlay
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// SetOverlay sets overrides applied on every Get, such as environment variables.
func (s *SettingsService) SetOverlay(overlay driven.SettingsOverlay) {
	s.overlay = overlay
}

// Get retrieves current application settings, with overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	if s.overlay != nil {
		if err := s.overlay.Apply(settings); err != nil {
			return nil, fmt.Errorf("apply settings overrides: %w", err)
		}
	}
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRPS),
		},
		Index: domain.IndexSettings{
			Backend:        s.getBackend(d.Index.Backend),
			Name:           s.getString(keyIndexName, d.Index.Name),
			Concurrency:    s.getInt(keyIndexWorkers, d.Index.Concurrency),
			RebuildTimeout: s.getDuration(keyIndexTimeout, d.Index.RebuildTimeout),
		},
		Answer: domain.AnswerSettings{
			TopK:             s.getInt(keyAnswerTopK, d.Answer.TopK),
			MaxContextTokens: s.getInt(keyAnswerCtxTokens, d.Answer.MaxContextTokens),
			MaxAnswerTokens:  s.getInt(keyAnswerMaxTokens, d.Answer.MaxAnswerTokens),
			Temperature:      s.getFloat(keyAnswerTemp, d.Answer.Temperature),
			Timeout:          s.getDuration(keyAnswerTimeout, d.Answer.Timeout),
		},
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRPS, settings.LLM.RequestsPerSecond},
		{keyIndexBackend, string(settings.Index.Backend)},
		{keyIndexName, settings.Index.Name},
		{keyIndexWorkers, settings.Index.Concurrency},
		{keyIndexTimeout, settings.Index.RebuildTimeout.String()},
		{keyAnswerTopK, settings.Answer.TopK},
		{keyAnswerCtxTokens, settings.Answer.MaxContextTokens},
		{keyAnswerMaxTokens, settings.Answer.MaxAnswerTokens},
		{keyAnswerTemp, settings.Answer.Temperature},
		{keyAnswerTimeout, settings.Answer.Timeout.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so an empty value never wipes a stored key.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// Set updates a single setting by dotted key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindProvider:
		p := domain.AIProvider(value)
		if key == keyEmbedProvider && !p.SupportsEmbedding() {
			return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidInput, value)
		}
		if key == keyLLMProvider && !p.SupportsLLM() {
			return fmt.Errorf("%w: provider %q does not support text generation", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindBackend:
		if !domain.IndexBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindPositiveInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	}

	return s.configStore.Set(key, parsed)
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the embedding model invalidates the published index.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsLLM() {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = defaultBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// defaultBaseURL keeps a configured Ollama endpoint and clears it for cloud providers.
func defaultBaseURL(provider domain.AIProvider, current string) string {
	switch {
	case provider == domain.AIProviderOllama && current == "":
		return "http://localhost:11434"
	case provider == domain.AIProviderOllama:
		return current
	default:
		return ""
	}
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if !settings.Index.Backend.IsValid() {
		return fmt.Errorf("invalid index backend: %s", settings.Index.Backend)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyIndexBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
