package driving

import (
	"context"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// AnswerService answers questions about the catalog.
type AnswerService interface {
	// Ask retrieves relevant products and synthesises a grounded answer.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// Retrieve returns the k products most similar to question, best first.
	Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error)
}
