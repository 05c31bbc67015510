package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService builds, reloads and describes index generations.
type IndexService struct {
	builder     *IndexBuilder
	generations *Generations
	products    driven.ProductStore
}

// NewIndexService creates a new index service.
// The product store is optional and only used by Reindex.
func NewIndexService(builder *IndexBuilder, generations *Generations, products driven.ProductStore) *IndexService {
	return &IndexService{
		builder:     builder,
		generations: generations,
		products:    products,
	}
}

// Rebuild indexes records and publishes the result.
func (s *IndexService) Rebuild(ctx context.Context, records []domain.ProductRecord) (*domain.IndexInfo, error) {
	gen, err := s.builder.Rebuild(ctx, records)
	if err != nil {
		return nil, err
	}
	return gen.Info(), nil
}

// Reindex rebuilds from the imported catalog. With an empty catalog it
// falls back to loading the persisted generation.
func (s *IndexService) Reindex(ctx context.Context) (*domain.IndexInfo, error) {
	if s.products != nil {
		records, err := s.products.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		if len(records) > 0 {
			logger.Debug("Reindexing %d catalog products", len(records))
			return s.Rebuild(ctx, records)
		}
		logger.Debug("Catalog is empty, loading persisted index")
	}
	return s.Reload(ctx)
}

// Reload publishes the persisted generation.
func (s *IndexService) Reload(ctx context.Context) (*domain.IndexInfo, error) {
	gen, err := s.builder.Load(ctx)
	if err != nil {
		return nil, err
	}
	return gen.Info(), nil
}

// Info describes the published generation.
func (s *IndexService) Info(_ context.Context) (*domain.IndexInfo, error) {
	gen := s.generations.Current()
	if gen == nil {
		return nil, domain.ErrIndexNotReady
	}
	return gen.Info(), nil
}

// LoadIfPresent publishes the persisted generation when one exists.
// A missing index is not an error; callers start with nothing published.
func (s *IndexService) LoadIfPresent(ctx context.Context) error {
	if _, err := s.builder.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("No persisted index to load")
			return nil
		}
		return err
	}
	return nil
}
