package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure ProductStore implements the interface.
var _ driven.ProductStore = (*ProductStore)(nil)

// ProductStore is an in-memory implementation of driven.ProductStore.
type ProductStore struct {
	mu      sync.RWMutex
	records []domain.ProductRecord
	byID    map[string]int
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		byID: make(map[string]int),
	}
}

// Replace swaps the whole catalog for records.
func (s *ProductStore) Replace(_ context.Context, records []domain.ProductRecord) error {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := byID[r.ID]; dup {
			return domain.ErrDuplicateRecord
		}
		byID[r.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
	s.byID = byID
	return nil
}

// List returns every product in import order.
func (s *ProductStore) List(_ context.Context) ([]domain.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

// Get returns one product by id.
func (s *ProductStore) Get(_ context.Context, id string) (*domain.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := s.records[i]
	return &rec, nil
}

// Search returns products whose title or brand contains every keyword.
func (s *ProductStore) Search(_ context.Context, keywords string, limit int) ([]domain.ProductRecord, error) {
	terms := strings.Fields(strings.ToLower(keywords))
	if len(terms) == 0 {
		return []domain.ProductRecord{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ProductRecord{}
	for _, r := range s.records {
		if limit > 0 && len(out) >= limit {
			break
		}
		haystack := strings.ToLower(r.Title + " " + r.Brand)
		if containsAll(haystack, terms) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func containsAll(haystack string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
