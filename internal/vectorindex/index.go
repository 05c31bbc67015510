package vectorindex

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// Entry is one document to index.
type Entry struct {
	SourceID  string
	Embedding []float32
}

// Meta describes how the embeddings of a generation were produced.
type Meta struct {
	// ModelID is the embedding model tag. Queries must use the same model.
	ModelID string
}

// Hit is one query result.
type Hit struct {
	Position int
	SourceID string
	Score    float64
	Rank     int
}

// Index is one immutable index generation.
// It is safe for concurrent queries.
type Index struct {
	generation string
	createdAt  time.Time
	modelID    string
	dim        int
	ids        []string
	vectors    []float32 // len(ids) * dim, L2-normalised
}

// Build creates a new generation from entries. Positions follow entry order.
func Build(entries []Entry, meta Meta) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries to index", domain.ErrEmptyInput)
	}

	dim := len(entries[0].Embedding)
	if dim == 0 {
		return nil, &domain.DimensionMismatchError{Position: 0, Want: 1, Got: 0}
	}

	idx := &Index{
		generation: uuid.NewString(),
		createdAt:  time.Now().UTC().Round(0),
		modelID:    meta.ModelID,
		dim:        dim,
		ids:        make([]string, len(entries)),
		vectors:    make([]float32, 0, len(entries)*dim),
	}

	for i, e := range entries {
		if len(e.Embedding) != dim {
			return nil, &domain.DimensionMismatchError{Position: i, Want: dim, Got: len(e.Embedding)}
		}
		if strings.TrimSpace(e.SourceID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no source id", domain.ErrInvalidInput, i)
		}
		idx.ids[i] = e.SourceID
		idx.vectors = append(idx.vectors, normalizeL2(e.Embedding)...)
	}

	return idx, nil
}

// Query returns the k entries most similar to embedding, best first.
// When k exceeds Len every entry is returned.
func (idx *Index) Query(embedding []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}
	if len(embedding) != idx.dim {
		return nil, &domain.DimensionMismatchError{Position: -1, Want: idx.dim, Got: len(embedding)}
	}

	q := normalizeL2(embedding)
	hits := make([]Hit, len(idx.ids))
	for pos := range idx.ids {
		hits[pos] = Hit{
			Position: pos,
			SourceID: idx.ids[pos],
			Score:    dot(q, idx.vector(pos)),
		}
	}

	// Stable sort keeps ascending position for equal scores.
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k > len(hits) {
		k = len(hits)
	}
	hits = hits[:k]
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits, nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Dimensions returns the embedding length of the generation.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Generation returns the unique id of this generation.
func (idx *Index) Generation() string {
	return idx.generation
}

// ModelID returns the embedding model tag recorded at build time.
func (idx *Index) ModelID() string {
	return idx.modelID
}

// CreatedAt returns when the generation was built.
func (idx *Index) CreatedAt() time.Time {
	return idx.createdAt
}

// SourceID resolves a position to its source id.
func (idx *Index) SourceID(pos int) (string, bool) {
	if pos < 0 || pos >= len(idx.ids) {
		return "", false
	}
	return idx.ids[pos], true
}

// Entries returns a copy of the stored entries with normalised embeddings.
func (idx *Index) Entries() []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(idx.ids))
	for pos, id := range idx.ids {
		out[pos] = domain.IndexEntry{
			Position:  pos,
			Embedding: slices.Clone(idx.vector(pos)),
			SourceID:  id,
		}
	}
	return out
}

// Info summarises the generation.
func (idx *Index) Info() domain.IndexInfo {
	return domain.IndexInfo{
		Generation: idx.generation,
		ModelID:    idx.modelID,
		Dimensions: idx.dim,
		Documents:  len(idx.ids),
		CreatedAt:  idx.createdAt,
	}
}

func (idx *Index) vector(pos int) []float32 {
	return idx.vectors[pos*idx.dim : (pos+1)*idx.dim]
}
