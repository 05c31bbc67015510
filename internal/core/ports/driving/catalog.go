package driving

import (
	"context"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// CatalogService manages the imported product catalog.
type CatalogService interface {
	// Import replaces the catalog with the records read from path.
	Import(ctx context.Context, path string) (*domain.ImportResult, error)

	// Search finds products by keyword in title or brand.
	Search(ctx context.Context, keywords string, limit int) ([]domain.ProductRecord, error)

	// Get returns one product by id.
	Get(ctx context.Context, id string) (*domain.ProductRecord, error)

	// Count returns the number of products in the catalog.
	Count(ctx context.Context) (int, error)
}
