package driving

import (
	"context"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// IndexService builds and publishes index generations.
type IndexService interface {
	// Rebuild indexes records, persists the generation and publishes it.
	// On any failure the previously published generation stays in place.
	Rebuild(ctx context.Context, records []domain.ProductRecord) (*domain.IndexInfo, error)

	// Reindex rebuilds from the product catalog, or loads the persisted
	// generation when the catalog is empty.
	Reindex(ctx context.Context) (*domain.IndexInfo, error)

	// Reload publishes the persisted generation.
	Reload(ctx context.Context) (*domain.IndexInfo, error)

	// Info describes the published generation.
	// Returns domain.ErrIndexNotReady if nothing is published.
	Info(ctx context.Context) (*domain.IndexInfo, error)
}
