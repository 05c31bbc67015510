package driven

import (
	"context"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// ProductStore persists the imported product catalog.
type ProductStore interface {
	// Replace swaps the whole catalog for records in one transaction.
	Replace(ctx context.Context, records []domain.ProductRecord) error

	// List returns every product ordered by import position.
	List(ctx context.Context) ([]domain.ProductRecord, error)

	// Get returns one product. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.ProductRecord, error)

	// Search returns products whose title or brand contains every keyword,
	// in import order.
	Search(ctx context.Context, keywords string, limit int) ([]domain.ProductRecord, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int, error)
}

// RecordSource reads scraped product records, such as the scraper's
// JSONL output or an exported CSV.
type RecordSource interface {
	// Records returns the valid records at path in file order.
	// Rows that cannot be turned into a valid record are skipped and counted.
	Records(ctx context.Context, path string) (records []domain.ProductRecord, skipped int, err error)
}
