package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

func TestProductsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(productsCmd.Commands()))
	for _, c := range productsCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Contains(t, names, "search")
	assert.Contains(t, names, "get")
}

func TestProductsSearchCmd_JoinsKeywords(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockCatalogService{}
	catalogService = mock

	out, err := executeCommand("products", "search", "running", "shoe")

	require.NoError(t, err)
	assert.Equal(t, "running shoe", mock.lastKeywords)
	assert.Equal(t, 20, mock.lastLimit)
	assert.Contains(t, out, "B001  Acme Trail Runner")
	assert.Contains(t, out, "2 product(s)")
}

func TestProductsSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("products", "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No products found.")
}

func TestProductsGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("products", "get", "B001")

	require.NoError(t, err)
	assert.Contains(t, out, "Acme Trail Runner")
	assert.Contains(t, out, "Price:    89.50")
	assert.Contains(t, out, "Rating:   4.6 / 5")
	assert.Contains(t, out, "Reviews:  1234")
}

func TestProductsGetCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { productsJSON = false }()

	out, err := executeCommand("products", "get", "--json", "B002")

	require.NoError(t, err)
	assert.Contains(t, out, `"id": "B002"`)
	assert.NotContains(t, out, `"price"`)
}

func TestProductsGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("products", "get", "B404")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "product B404 not found")
}

func TestProductsCmd_ServiceNotConfigured(t *testing.T) {
	old := catalogService
	catalogService = nil
	defer func() { catalogService = old }()

	_, err := executeCommand("products", "get", "B001")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "catalog service not configured")
}

func TestProductDetails(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.ProductRecord
		want string
	}{
		{"title only", domain.ProductRecord{ID: "1", Title: "x"}, ""},
		{"brand and price", domain.ProductRecord{Brand: "Acme", Price: domain.Ptr(10.0)}, "Acme | 10.00"},
		{"rating only", domain.ProductRecord{Rating: domain.Ptr(3.0)}, "3.0 stars"},
		{"reviews only", domain.ProductRecord{ReviewCount: domain.Ptr(0)}, "0 reviews"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, productDetails(tt.rec))
		})
	}
}
