// Package env overlays settings from environment variables.
//
// Every setting can be overridden with a SHELFWISE_ variable named after its
// key, e.g. SHELFWISE_ANSWER_TOP_K for answer.top_k. Provider API keys also
// fall back to the conventional OPENAI_API_KEY, ANTHROPIC_API_KEY and
// GEMINI_API_KEY variables. Variables in .env files are loaded first and
// never override the real environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure Overlay implements the interface.
var _ driven.SettingsOverlay = (*Overlay)(nil)

// Prefix is prepended to every override variable.
const Prefix = "SHELFWISE"

// overrides mirrors the settings keys. Nil fields were not set.
type overrides struct {
	EmbeddingProvider          *string  `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel             *string  `envconfig:"EMBEDDING_MODEL"`
	EmbeddingBaseURL           *string  `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey            *string  `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingDimensions        *int     `envconfig:"EMBEDDING_DIMENSIONS"`
	EmbeddingRequestsPerSecond *float64 `envconfig:"EMBEDDING_REQUESTS_PER_SECOND"`

	LLMProvider          *string  `envconfig:"LLM_PROVIDER"`
	LLMModel             *string  `envconfig:"LLM_MODEL"`
	LLMBaseURL           *string  `envconfig:"LLM_BASE_URL"`
	LLMAPIKey            *string  `envconfig:"LLM_API_KEY"`
	LLMRequestsPerSecond *float64 `envconfig:"LLM_REQUESTS_PER_SECOND"`

	IndexBackend        *string        `envconfig:"INDEX_BACKEND"`
	IndexName           *string        `envconfig:"INDEX_NAME"`
	IndexConcurrency    *int           `envconfig:"INDEX_CONCURRENCY"`
	IndexRebuildTimeout *time.Duration `envconfig:"INDEX_REBUILD_TIMEOUT"`

	AnswerTopK             *int           `envconfig:"ANSWER_TOP_K"`
	AnswerMaxContextTokens *int           `envconfig:"ANSWER_MAX_CONTEXT_TOKENS"`
	AnswerMaxAnswerTokens  *int           `envconfig:"ANSWER_MAX_ANSWER_TOKENS"`
	AnswerTemperature      *float64       `envconfig:"ANSWER_TEMPERATURE"`
	AnswerTimeout          *time.Duration `envconfig:"ANSWER_TIMEOUT"`
}

// providerKeys are the vendor-conventional API key variables.
type providerKeys struct {
	OpenAI    string `envconfig:"OPENAI_API_KEY"`
	Anthropic string `envconfig:"ANTHROPIC_API_KEY"`
	Gemini    string `envconfig:"GEMINI_API_KEY"`
}

func (k providerKeys) forProvider(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return k.OpenAI
	case domain.AIProviderAnthropic:
		return k.Anthropic
	case domain.AIProviderGemini:
		return k.Gemini
	default:
		return ""
	}
}

// Overlay applies environment overrides on top of stored settings.
type Overlay struct {
	dotenvPaths []string
	loadOnce    sync.Once
	loadErr     error
}

// NewOverlay creates an overlay. The given .env files are loaded on first
// use; missing files are skipped.
func NewOverlay(dotenvPaths ...string) *Overlay {
	return &Overlay{dotenvPaths: dotenvPaths}
}

// Apply overwrites fields of settings that have an environment override.
func (o *Overlay) Apply(settings *domain.AppSettings) error {
	o.loadOnce.Do(o.loadDotenv)
	if o.loadErr != nil {
		return o.loadErr
	}

	var ov overrides
	if err := envconfig.Process(Prefix, &ov); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	var keys providerKeys
	if err := envconfig.Process("", &keys); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if err := ov.applyEmbedding(&settings.Embedding); err != nil {
		return err
	}
	if err := ov.applyLLM(&settings.LLM); err != nil {
		return err
	}
	if err := ov.applyIndex(&settings.Index); err != nil {
		return err
	}
	ov.applyAnswer(&settings.Answer)

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = keys.forProvider(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = keys.forProvider(settings.LLM.Provider)
	}
	return nil
}

func (o *Overlay) loadDotenv() {
	for _, path := range o.dotenvPaths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			o.loadErr = fmt.Errorf("load %s: %w", path, err)
			return
		}
		logger.Debug("loaded environment from %s", path)
	}
}

func (ov *overrides) applyEmbedding(e *domain.EmbeddingSettings) error {
	if ov.EmbeddingProvider != nil {
		p := domain.AIProvider(*ov.EmbeddingProvider)
		if !p.SupportsEmbedding() {
			return fmt.Errorf("%w: %s_EMBEDDING_PROVIDER=%q is not an embedding provider",
				domain.ErrInvalidInput, Prefix, *ov.EmbeddingProvider)
		}
		e.Provider = p
	}
	setIf(&e.Model, ov.EmbeddingModel)
	setIf(&e.BaseURL, ov.EmbeddingBaseURL)
	setIf(&e.APIKey, ov.EmbeddingAPIKey)
	setIf(&e.Dimensions, ov.EmbeddingDimensions)
	setIf(&e.RequestsPerSecond, ov.EmbeddingRequestsPerSecond)
	return nil
}

func (ov *overrides) applyLLM(l *domain.LLMSettings) error {
	if ov.LLMProvider != nil {
		p := domain.AIProvider(*ov.LLMProvider)
		if !p.SupportsLLM() {
			return fmt.Errorf("%w: %s_LLM_PROVIDER=%q is not an LLM provider",
				domain.ErrInvalidInput, Prefix, *ov.LLMProvider)
		}
		l.Provider = p
	}
	setIf(&l.Model, ov.LLMModel)
	setIf(&l.BaseURL, ov.LLMBaseURL)
	setIf(&l.APIKey, ov.LLMAPIKey)
	setIf(&l.RequestsPerSecond, ov.LLMRequestsPerSecond)
	return nil
}

func (ov *overrides) applyIndex(i *domain.IndexSettings) error {
	if ov.IndexBackend != nil {
		b := domain.IndexBackend(*ov.IndexBackend)
		if !b.IsValid() {
			return fmt.Errorf("%w: %s_INDEX_BACKEND=%q must be file or sqlite",
				domain.ErrInvalidInput, Prefix, *ov.IndexBackend)
		}
		i.Backend = b
	}
	setIf(&i.Name, ov.IndexName)
	setIf(&i.Concurrency, ov.IndexConcurrency)
	setIf(&i.RebuildTimeout, ov.IndexRebuildTimeout)
	return nil
}

func (ov *overrides) applyAnswer(a *domain.AnswerSettings) {
	setIf(&a.TopK, ov.AnswerTopK)
	setIf(&a.MaxContextTokens, ov.AnswerMaxContextTokens)
	setIf(&a.MaxAnswerTokens, ov.AnswerMaxAnswerTokens)
	setIf(&a.Temperature, ov.AnswerTemperature)
	setIf(&a.Timeout, ov.AnswerTimeout)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
