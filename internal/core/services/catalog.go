package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// defaultSearchLimit caps keyword search when the caller passes no limit.
const defaultSearchLimit = 20

// CatalogService imports and looks up scraped products.
type CatalogService struct {
	store  driven.ProductStore
	source driven.RecordSource
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store driven.ProductStore, source driven.RecordSource) *CatalogService {
	return &CatalogService{store: store, source: source}
}

// Import replaces the catalog with the records read from path.
// Records that fail validation are skipped and counted so that only
// indexable products reach the store. Duplicate product ids fail the import
// and leave the catalog unchanged.
func (s *CatalogService) Import(ctx context.Context, path string) (*domain.ImportResult, error) {
	logger.Section("Catalog Import")
	defer logger.Timer("import")()

	if s.source == nil {
		return nil, fmt.Errorf("import: no record source configured")
	}
	records, skipped, err := s.source.Records(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	records, invalid := validRecords(records)
	skipped += invalid
	if len(records) == 0 {
		return nil, fmt.Errorf("import %s: %w: no valid product records", path, domain.ErrEmptyInput)
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("import %s: %w: %s", path, domain.ErrDuplicateRecord, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	if err := s.store.Replace(ctx, records); err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	if skipped > 0 {
		logger.Warn("Skipped %d rows that were not valid product records", skipped)
	}
	logger.Info("Imported %d products", len(records))

	return &domain.ImportResult{Imported: len(records), Skipped: skipped}, nil
}

// validRecords drops records that fail validation and reports how many.
func validRecords(records []domain.ProductRecord) ([]domain.ProductRecord, int) {
	valid := records[:0:0]
	for _, r := range records {
		if err := r.Validate(); err != nil {
			logger.Debug("catalog: skipping %v", err)
			continue
		}
		valid = append(valid, r)
	}
	return valid, len(records) - len(valid)
}

// Search finds products whose title or brand contains every keyword.
func (s *CatalogService) Search(ctx context.Context, keywords string, limit int) ([]domain.ProductRecord, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, fmt.Errorf("search: %w: keywords are empty", domain.ErrEmptyInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.store.Search(ctx, keywords, limit)
}

// Get returns one product by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.ProductRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("get product: %w: id is empty", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// Count returns the number of products in the catalog.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Records returns the whole catalog in import order.
func (s *CatalogService) Records(ctx context.Context) ([]domain.ProductRecord, error) {
	return s.store.List(ctx)
}
