package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

func TestCatalogService_Import(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProductStore()
	svc := NewCatalogService(store, &stubSource{records: catalogFixture(), skipped: 2})

	result, err := svc.Import(ctx, "products.jsonl")
	require.NoError(t, err)
	assert.Equal(t, &domain.ImportResult{Imported: 3, Skipped: 2}, result)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalogFixture(), records)
}

func TestCatalogService_Import_SkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProductStore()
	records := append(catalogFixture(),
		domain.ProductRecord{ID: "A9", Title: "Broken Counter", ReviewCount: domain.Ptr(-1)},
		domain.ProductRecord{ID: "A10", Title: "Off Scale", Rating: domain.Ptr(7.0)},
	)
	svc := NewCatalogService(store, &stubSource{records: records, skipped: 1})

	result, err := svc.Import(ctx, "products.jsonl")
	require.NoError(t, err)
	assert.Equal(t, &domain.ImportResult{Imported: 3, Skipped: 3}, result)

	stored, err := svc.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalogFixture(), stored)
	for _, r := range stored {
		assert.NoError(t, r.Validate())
	}
}

func TestCatalogService_Import_Errors(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("permission denied")

	tests := []struct {
		name    string
		source  *stubSource
		wantErr error
	}{
		{"read failure", &stubSource{err: readErr}, readErr},
		{"nothing valid", &stubSource{skipped: 4}, domain.ErrEmptyInput},
		{"duplicate ids", &stubSource{records: append(catalogFixture(), catalogFixture()[1])}, domain.ErrDuplicateRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewProductStore()
			require.NoError(t, store.Replace(ctx, catalogFixture()[:1]))
			svc := NewCatalogService(store, tt.source)

			_, err := svc.Import(ctx, "products.csv")
			assert.ErrorIs(t, err, tt.wantErr)

			n, _ := store.Count(ctx)
			assert.Equal(t, 1, n, "catalog unchanged")
		})
	}
}

func TestCatalogService_Import_NoSource(t *testing.T) {
	svc := NewCatalogService(memory.NewProductStore(), nil)
	_, err := svc.Import(context.Background(), "x.jsonl")
	assert.Error(t, err)
}

func TestCatalogService_SearchAndGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProductStore()
	require.NoError(t, store.Replace(ctx, catalogFixture()))
	svc := NewCatalogService(store, nil)

	found, err := svc.Search(ctx, "headset", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "A2", found[0].ID)

	_, err = svc.Search(ctx, "  ", 5)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	rec, err := svc.Get(ctx, " A3 ")
	require.NoError(t, err)
	assert.Equal(t, "Massage Gun X", rec.Title)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
