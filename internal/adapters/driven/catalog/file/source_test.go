package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSource_Records_JSONLines(t *testing.T) {
	path := writeFile(t, "products.jsonl", `
{"asin": "B0A1", "title": "Wireless Earbuds Pro", "brand": "Visit the Acme Store", "price": "PKR 84,676.80", "rating": "4.5", "review_count": "(1,234)", "image_url": "https://img/a1.jpg", "product_url": "https://www.amazon.com/dp/B0A1"}

{"asin": "B0A2", "title": "Gaming Headset", "price": 79, "rating": 4.1, "review_count": 88}
{"asin": "", "title": "No id"}
{"asin": "B0A4", "title": "  "}
`)

	records, skipped, err := NewSource().Records(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, domain.ProductRecord{
		ID:          "B0A1",
		Title:       "Wireless Earbuds Pro",
		Brand:       "Acme",
		Price:       domain.Ptr(84676.80),
		Rating:      domain.Ptr(4.5),
		ReviewCount: domain.Ptr(1234),
		ImageURL:    "https://img/a1.jpg",
		ProductURL:  "https://www.amazon.com/dp/B0A1",
	}, records[0])

	assert.Equal(t, "B0A2", records[1].ID)
	assert.Equal(t, 79.0, *records[1].Price)
	assert.Equal(t, 4.1, *records[1].Rating)
	assert.Equal(t, 88, *records[1].ReviewCount)
	assert.Empty(t, records[1].Brand)
}

func TestSource_Records_OversizedReviewCount(t *testing.T) {
	path := writeFile(t, "products.jsonl", `{"asin": "A1", "title": "Trail Runner", "reviews": "99999999999999999999"}
{"asin": "A2", "title": "Road Runner", "review_count": 1e300}
`)

	records, skipped, err := NewSource().Records(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.Nil(t, r.ReviewCount, r.ID)
		assert.NoError(t, r.Validate())
	}
}

func TestSource_Records_JSONArray(t *testing.T) {
	path := writeFile(t, "products.json", "\ufeff  [{\"id\": \"A1\", \"title\": \"Massage Gun X\", \"price\": \"Price not listed\"}]")

	records, skipped, err := NewSource().Records(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "Massage Gun X", records[0].Title)
	assert.Nil(t, records[0].Price)
}

func TestSource_Records_CSV(t *testing.T) {
	path := writeFile(t, "feature_matrix.csv", "\ufeffasin,price,title,rating,review_count,brand\n"+
		"A1,39.99,Wireless Earbuds Pro,4.5 out of 5 stars,2.3K,Acme\n"+
		"A2,,\"Gaming Headset, RGB\",,,\n"+
		",10,Orphan,4,1,X\n")

	records, skipped, err := NewSource().Records(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, 39.99, *records[0].Price)
	assert.Equal(t, 4.5, *records[0].Rating)
	assert.Equal(t, 2300, *records[0].ReviewCount)
	assert.Equal(t, "Acme", records[0].Brand)

	assert.Equal(t, "Gaming Headset, RGB", records[1].Title)
	assert.Nil(t, records[1].Price)
	assert.Nil(t, records[1].Rating)
	assert.Nil(t, records[1].ReviewCount)
}

func TestSource_Records_Empty(t *testing.T) {
	for _, name := range []string{"empty.jsonl", "empty.csv"} {
		t.Run(name, func(t *testing.T) {
			records, skipped, err := NewSource().Records(context.Background(), writeFile(t, name, ""))
			require.NoError(t, err)
			assert.Empty(t, records)
			assert.Zero(t, skipped)
		})
	}
}

func TestSource_Records_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := NewSource().Records(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed line", func(t *testing.T) {
		path := writeFile(t, "bad.jsonl", "{\"id\": \"A1\", \"title\": \"ok\"}\n{not json}\n")
		_, _, err := NewSource().Records(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("malformed array", func(t *testing.T) {
		path := writeFile(t, "bad.json", `[{"id": "A1"`)
		_, _, err := NewSource().Records(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("malformed csv", func(t *testing.T) {
		path := writeFile(t, "bad.csv", "id,title\nA1,\"unterminated\n")
		_, _, err := NewSource().Records(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{"PKR 84,676.80", domain.Ptr(84676.80)},
		{"$39.99", domain.Ptr(39.99)},
		{"$1,299", domain.Ptr(1299.0)},
		{39.5, domain.Ptr(39.5)},
		{"Price not listed", nil},
		{"", nil},
		{nil, nil},
		{-3.0, nil},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{"4.5 out of 5 stars", domain.Ptr(4.5)},
		{"4", domain.Ptr(4.0)},
		{4.8, domain.Ptr(4.8)},
		{"7.5", nil},
		{6.0, nil},
		{"no rating", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRating(tt.in), "input %v", tt.in)
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		in   any
		want *int
	}{
		{"(1,234)", domain.Ptr(1234)},
		{"2.3K", domain.Ptr(2300)},
		{"12k", domain.Ptr(12000)},
		{"1.5M", domain.Ptr(1500000)},
		{"210", domain.Ptr(210)},
		{88.0, domain.Ptr(88)},
		{-1.0, nil},
		{"99999999999999999999 ratings", nil},
		{1e300, nil},
		{"", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseReviewCount(tt.in), "input %v", tt.in)
	}
}

func TestNormaliseBrand(t *testing.T) {
	assert.Equal(t, "Acme", normaliseBrand("Visit the Acme Store"))
	assert.Equal(t, "Zorg", normaliseBrand("Brand: Zorg"))
	assert.Equal(t, "Plain", normaliseBrand("  Plain "))
}
