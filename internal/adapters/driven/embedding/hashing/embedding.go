// Package hashing provides a built-in embedding service based on feature
// hashing. It needs no model download or network access, which makes it the
// default for offline use and tests. Quality is lexical: products rank by
// shared words and word pairs with the question.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-v1"
	DefaultDimensions = 512

	// bigramWeight scales adjacent word pairs relative to single words.
	bigramWeight = 0.5
)

// Config holds configuration for the hashing embedder.
type Config struct {
	// Model is the version tag of the hashing scheme (default: hashing-v1).
	Model string

	// Dimensions is the number of hash buckets (default: 512).
	Dimensions int
}

// EmbeddingService embeds text by hashing words into a fixed number of
// signed buckets.
type EmbeddingService struct {
	model      string
	dimensions int
	tokens     *regexp.Regexp
	stopwords  map[string]struct{}
}

// New creates a hashing embedding service.
func New(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Dimensions < 1 {
		return nil, fmt.Errorf("%w: hashing dimensions must be positive, got %d", domain.ErrInvalidInput, cfg.Dimensions)
	}

	return &EmbeddingService{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		tokens:     regexp.MustCompile(`[\p{L}\p{N}]+(?:[.'’][\p{L}\p{N}]+)*`),
		stopwords:  defaultStopwords(),
	}, nil
}

// Embed generates a unit-length vector for text. Text with no indexable
// words yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	words := s.tokenize(text)
	for i, w := range words {
		s.add(vec, w, 1)
		if i > 0 {
			s.add(vec, words[i-1]+" "+w, bigramWeight)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the number of hash buckets.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the scheme tag including the bucket count, so indexes
// built with a different size are detected as a different model.
func (s *EmbeddingService) ModelName() string {
	return s.model + "-" + strconv.Itoa(s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// add hashes feature into a bucket. One hash bit picks the sign so that
// collisions cancel out on average instead of piling up.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := s.tokens.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "up", "down", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now", "what", "which", "who",
		"me", "my", "i", "you", "do", "does", "any", "some", "there", "have", "has",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
