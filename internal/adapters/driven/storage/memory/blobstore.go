package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore.
// Blobs are copied on the way in and out.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[string][]byte),
	}
}

// Write stores data at location.
func (s *BlobStore) Write(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[location] = slices.Clone(data)
	return nil
}

// Read returns the blob at location.
func (s *BlobStore) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[location]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(data), nil
}

// Delete removes the blob at location.
func (s *BlobStore) Delete(_ context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[location]; !ok {
		return domain.ErrNotFound
	}
	delete(s.blobs, location)
	return nil
}

// Locations returns every stored location in sorted order.
func (s *BlobStore) Locations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.blobs))
	for loc := range s.blobs {
		out = append(out, loc)
	}
	slices.Sort(out)
	return out
}
