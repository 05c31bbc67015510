package services

import (
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/vectorindex"
)

// Generation is one published index: the vector index plus the documents
// and records its positions resolve to. It is never modified after creation.
type Generation struct {
	Index *vectorindex.Index

	// Documents is indexed by position.
	Documents []domain.Document

	// Records is keyed by product id.
	Records map[string]domain.ProductRecord
}

// newGeneration pairs an index with the records it was built from.
// Every indexed source id must resolve to exactly one record.
func newGeneration(idx *vectorindex.Index, records []domain.ProductRecord) (*Generation, error) {
	byID := make(map[string]domain.ProductRecord, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, r.ID)
		}
		byID[r.ID] = r
	}

	entries := idx.Entries()
	docs := make([]domain.Document, len(entries))
	for _, e := range entries {
		rec, ok := byID[e.SourceID]
		if !ok {
			return nil, fmt.Errorf("%w: indexed id %s has no product record", domain.ErrCorruptIndex, e.SourceID)
		}
		docs[e.Position] = domain.Document{
			SourceID:  e.SourceID,
			Text:      BuildDocumentText(rec),
			Embedding: e.Embedding,
		}
	}

	return &Generation{Index: idx, Documents: docs, Records: byID}, nil
}

// Info summarises the generation.
func (g *Generation) Info() *domain.IndexInfo {
	info := g.Index.Info()
	return &info
}

// Generations holds the published generation. Readers take one snapshot
// per operation with Current; writers replace it wholesale with Publish.
type Generations struct {
	current atomic.Pointer[Generation]
}

// Current returns the published generation, or nil before the first publish.
func (g *Generations) Current() *Generation {
	return g.current.Load()
}

// Publish makes gen current and returns the generation it replaced.
func (g *Generations) Publish(gen *Generation) *Generation {
	return g.current.Swap(gen)
}
