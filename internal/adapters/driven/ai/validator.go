package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded once to check the provider's real vector length.
const probeText = "shelfwise dimension probe"

// ConfigValidator checks provider settings before they are saved.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout returns a copy of the validator with a different timeout.
// Non-positive values keep the current timeout.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d <= 0 {
		return v
	}
	return &ConfigValidator{timeout: d}
}

// ValidateEmbedding builds the embedding service, pings it and embeds a
// probe text whose length must match the service's reported dimension.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil {
		return nil
	}
	if config.Provider != "" && !config.Provider.SupportsEmbedding() {
		return fmt.Errorf("%w: %s does not provide embeddings", domain.ErrInvalidInput, config.Provider)
	}
	if !config.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return err
	}

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return &domain.DimensionMismatchError{Position: -1, Got: len(vec), Want: want}
	}
	return nil
}

// ValidateLLM builds the LLM service and pings it.
// Returns nil when no LLM is configured.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(config)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
