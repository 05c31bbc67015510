package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/vectorindex"
)

func newTestService(t *testing.T) *EmbeddingService {
	t.Helper()
	svc, err := New(Config{})
	require.NoError(t, err)
	return svc
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestNew_Defaults(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, "hashing-v1-512", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestNew_InvalidDimensions(t *testing.T) {
	_, err := New(Config{Dimensions: -3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestModelName_IncludesDimensions(t *testing.T) {
	a, err := New(Config{Dimensions: 256})
	require.NoError(t, err)
	b, err := New(Config{Dimensions: 1024})
	require.NoError(t, err)

	assert.NotEqual(t, a.ModelName(), b.ModelName())
}

func TestEmbed_DeterministicUnitLength(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.Embed(ctx, "Wireless Earbuds Pro with charging case")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "Wireless Earbuds Pro with charging case")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
}

func TestEmbed_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, _ := svc.Embed(ctx, "GAMING HEADSET")
	b, _ := svc.Embed(ctx, "gaming headset")
	assert.Equal(t, a, b)
}

func TestEmbed_OnlyStopwords(t *testing.T) {
	svc := newTestService(t)

	vec, err := svc.Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Zero(t, norm(vec))
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t).Embed(ctx, "earbuds")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbed_SharedWordsScoreHigher(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	q, _ := svc.Embed(ctx, "wireless earbuds under 50")
	earbuds, _ := svc.Embed(ctx, "Product: Wireless Earbuds Pro\nPrice: 39.99 (under 50)")
	headset, _ := svc.Embed(ctx, "Product: Gaming Headset\nPrice: 79.00 (under 100)")

	idx, err := vectorindex.Build([]vectorindex.Entry{
		{SourceID: "headset", Embedding: headset},
		{SourceID: "earbuds", Embedding: earbuds},
	}, vectorindex.Meta{ModelID: svc.ModelName()})
	require.NoError(t, err)

	hits, err := idx.Query(q, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "earbuds", hits[0].SourceID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestEmbed_KeepsDecimalNumbers(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, []string{"price", "39.99", "4.5", "stars"}, svc.tokenize("Price: 39.99, 4.5 stars"))
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	texts := []string{"earbuds", "headset", "mouse"}
	batch, err := svc.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, _ := svc.Embed(ctx, text)
		assert.Equal(t, single, batch[i])
	}
}
