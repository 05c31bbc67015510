package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Retriever finds the documents most similar to a question.
type Retriever struct {
	embedder driven.EmbeddingService
}

// NewRetriever creates a retriever that embeds questions with embedder.
func NewRetriever(embedder driven.EmbeddingService) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve embeds question and returns the k most similar documents in gen,
// best first. The generation must have been built with the same embedding
// model as the retriever uses.
func (r *Retriever) Retrieve(ctx context.Context, gen *Generation, question string, k int) ([]domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("retrieve: %w: question is empty", domain.ErrEmptyInput)
	}
	if gen == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrIndexNotReady)
	}

	if built, current := gen.Index.ModelID(), r.embedder.ModelName(); built != current {
		return nil, fmt.Errorf("retrieve: %w: index built with %q, embedding with %q",
			domain.ErrEmbeddingModelMismatch, built, current)
	}

	logger.Debug("Retrieving top %d for %q from generation %s", k, question, gen.Index.Generation())

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed question: %w", err)
	}

	hits, err := gen.Index.Query(vec, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	results := make([]domain.RetrievalResult, len(hits))
	for i, h := range hits {
		results[i] = domain.RetrievalResult{
			Document: gen.Documents[h.Position],
			Record:   gen.Records[h.SourceID],
			Score:    h.Score,
			Rank:     h.Rank,
		}
		logger.Debug("  #%d %s (%.4f)", h.Rank, h.SourceID, h.Score)
	}
	return results, nil
}
