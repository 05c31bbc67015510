package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

func buildGeneration(t *testing.T, embedder *stubEmbedder, records []domain.ProductRecord) *Generation {
	t.Helper()
	b := NewIndexBuilder(embedder, nil, &Generations{}, IndexBuilderConfig{})
	gen, err := b.Rebuild(context.Background(), records)
	require.NoError(t, err)
	return gen
}

func TestRetriever_TopOneIsVerbatimDocument(t *testing.T) {
	embedder := keywordEmbedder("kw-v1", testVocab, "")
	gen := buildGeneration(t, embedder, catalogFixture())

	results, err := NewRetriever(embedder).Retrieve(context.Background(), gen, "massage gun", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "A3", results[0].Document.SourceID)
	assert.Equal(t, BuildDocumentText(catalogFixture()[2]), results[0].Document.Text)
	assert.Equal(t, "Massage Gun X", results[0].Record.Title)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestRetriever_RanksBestFirst(t *testing.T) {
	embedder := keywordEmbedder("kw-v1", testVocab, "")
	gen := buildGeneration(t, embedder, catalogFixture())

	results, err := NewRetriever(embedder).Retrieve(context.Background(), gen, "wireless earbuds", 10)
	require.NoError(t, err)
	require.Len(t, results, 3, "k above the index size returns everything")

	assert.Equal(t, "A1", results[0].Document.SourceID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		assert.Equal(t, i+1, results[i].Rank)
	}
}

func TestRetriever_HashingEmbedderScenario(t *testing.T) {
	embedder := hashingEmbedder(t)
	b := NewIndexBuilder(embedder, nil, &Generations{}, IndexBuilderConfig{})
	gen, err := b.Rebuild(context.Background(), catalogFixture()[:2])
	require.NoError(t, err)

	results, err := NewRetriever(embedder).Retrieve(context.Background(), gen, "wireless earbuds under 50", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A1", results[0].Document.SourceID)
	assert.Equal(t, "A2", results[1].Document.SourceID)
}

func TestRetriever_Errors(t *testing.T) {
	embedder := keywordEmbedder("kw-v1", testVocab, "")
	gen := buildGeneration(t, embedder, catalogFixture())
	ctx := context.Background()

	tests := []struct {
		name     string
		embedder *stubEmbedder
		gen      *Generation
		question string
		k        int
		wantErr  error
	}{
		{"empty question", embedder, gen, "   ", 3, domain.ErrEmptyInput},
		{"no generation", embedder, nil, "earbuds", 3, domain.ErrIndexNotReady},
		{"model mismatch", keywordEmbedder("kw-v2", testVocab, ""), gen, "earbuds", 3, domain.ErrEmbeddingModelMismatch},
		{"query dimension mismatch", keywordEmbedder("kw-v1", testVocab[:2], ""), gen, "earbuds", 3, domain.ErrDimensionMismatch},
		{"k below one", embedder, gen, "earbuds", 0, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRetriever(tt.embedder).Retrieve(ctx, tt.gen, tt.question, tt.k)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRetriever_MismatchCheckedBeforeEmbedding(t *testing.T) {
	gen := buildGeneration(t, keywordEmbedder("kw-v1", testVocab, ""), catalogFixture())
	other := keywordEmbedder("kw-v2", testVocab, "")

	_, err := NewRetriever(other).Retrieve(context.Background(), gen, "earbuds", 1)
	require.ErrorIs(t, err, domain.ErrEmbeddingModelMismatch)
	assert.Zero(t, other.calls.Load())
}
