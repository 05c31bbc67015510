package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions against the published generation.
type AnswerService struct {
	generations *Generations
	retriever   *Retriever
	synthesizer *Synthesizer
	topK        int
}

// NewAnswerService creates a new answer service.
// The synthesizer is optional; without it only Retrieve works.
func NewAnswerService(generations *Generations, retriever *Retriever, synthesizer *Synthesizer) *AnswerService {
	return &AnswerService{
		generations: generations,
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        domain.DefaultTopK,
	}
}

// SetDefaultTopK sets the k used when a caller passes none.
func (s *AnswerService) SetDefaultTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

// Ask retrieves the k most similar products and asks the model to answer
// from them alone. Every source in the answer was part of the model's context.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	if s.synthesizer == nil {
		return nil, fmt.Errorf("ask: %w: no LLM provider configured", domain.ErrLLMUnavailable)
	}

	// One snapshot for the whole question; a concurrent publish does not
	// change which generation answers it.
	gen := s.generations.Current()

	results, err := s.retriever.Retrieve(ctx, gen, question, s.k(opts.K))
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Answer(ctx, question, results)
	if err != nil {
		return nil, err
	}
	answer.Generation = gen.Index.Generation()

	logger.Debug("Answered from generation %s with %d sources", answer.Generation, len(answer.Sources))
	return answer, nil
}

// Retrieve returns the k most similar products without calling the model.
func (s *AnswerService) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, s.generations.Current(), question, s.k(k))
}

func (s *AnswerService) k(k int) int {
	if k > 0 {
		return k
	}
	return s.topK
}
