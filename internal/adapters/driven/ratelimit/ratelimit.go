// Package ratelimit throttles calls to AI providers.
//
// The decorators wrap an embedding or LLM service with a token bucket so a
// rebuild fanning out over many records stays under a provider quota.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.LLMService       = (*LLMService)(nil)
)

// Config holds token bucket configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (default: 1).
	BurstSize int
}

func newLimiter(cfg Config) *rate.Limiter {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = max(1, int(math.Ceil(cfg.RequestsPerSecond)))
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// EmbeddingService throttles an embedding service.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WrapEmbedding returns svc throttled to cfg. A non-positive rate returns
// svc unchanged.
func WrapEmbedding(svc driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if svc == nil || cfg.RequestsPerSecond <= 0 {
		return svc
	}
	return &EmbeddingService{EmbeddingService: svc, limiter: newLimiter(cfg)}
}

// Embed waits for a token then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a single token then embeds the batch in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}

// LLMService throttles an LLM service.
type LLMService struct {
	driven.LLMService
	limiter *rate.Limiter
}

// WrapLLM returns svc throttled to cfg. A non-positive rate returns svc
// unchanged.
func WrapLLM(svc driven.LLMService, cfg Config) driven.LLMService {
	if svc == nil || cfg.RequestsPerSecond <= 0 {
		return svc
	}
	return &LLMService{LLMService: svc, limiter: newLimiter(cfg)}
}

// Generate waits for a token then completes prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.LLMService.Generate(ctx, prompt, opts)
}
