package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

var (
	productsLimit int
	productsJSON  bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the imported catalog",
	Long:  `Look up products in the imported catalog by keyword or ID.`,
}

var productsSearchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Find products by keyword",
	Long: `Lists catalog products whose title or brand contains every keyword,
in catalog order. With no keywords, lists the catalog.`,
	RunE: runProductsSearch,
}

var productsGetCmd = &cobra.Command{
	Use:   "get [product-id]",
	Short: "Show a single product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsGet,
}

func init() {
	productsSearchCmd.Flags().IntVarP(&productsLimit, "limit", "n", 20, "maximum number of products (0 = all)")
	productsCmd.PersistentFlags().BoolVar(&productsJSON, "json", false, "output as JSON")
	productsCmd.AddCommand(productsSearchCmd)
	productsCmd.AddCommand(productsGetCmd)
	rootCmd.AddCommand(productsCmd)
}

func runProductsSearch(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	records, err := catalogService.Search(cmd.Context(), strings.Join(args, " "), productsLimit)
	if err != nil {
		return fmt.Errorf("product search failed: %w", err)
	}

	if productsJSON {
		return outputJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No products found.")
		return nil
	}

	for i := range records {
		cmd.Printf("  %s  %s\n", records[i].ID, records[i].Title)
		if details := productDetails(records[i]); details != "" {
			cmd.Printf("      %s\n", details)
		}
	}
	cmd.Printf("\n%d product(s)\n", len(records))
	return nil
}

func runProductsGet(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	rec, err := catalogService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %s not found", args[0])
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if productsJSON {
		return outputJSON(cmd, rec)
	}

	cmd.Printf("ID:       %s\n", rec.ID)
	cmd.Printf("Title:    %s\n", rec.Title)
	if rec.Brand != "" {
		cmd.Printf("Brand:    %s\n", rec.Brand)
	}
	if rec.Price != nil {
		cmd.Printf("Price:    %.2f\n", *rec.Price)
	}
	if rec.Rating != nil {
		cmd.Printf("Rating:   %.1f / 5\n", *rec.Rating)
	}
	if rec.ReviewCount != nil {
		cmd.Printf("Reviews:  %d\n", *rec.ReviewCount)
	}
	if rec.ProductURL != "" {
		cmd.Printf("URL:      %s\n", rec.ProductURL)
	}
	if rec.ImageURL != "" {
		cmd.Printf("Image:    %s\n", rec.ImageURL)
	}
	return nil
}

// productDetails renders the optional fields of rec on one line.
func productDetails(rec domain.ProductRecord) string {
	var parts []string
	if rec.Brand != "" {
		parts = append(parts, rec.Brand)
	}
	if rec.Price != nil {
		parts = append(parts, fmt.Sprintf("%.2f", *rec.Price))
	}
	if rec.Rating != nil {
		parts = append(parts, fmt.Sprintf("%.1f stars", *rec.Rating))
	}
	if rec.ReviewCount != nil {
		parts = append(parts, fmt.Sprintf("%d reviews", *rec.ReviewCount))
	}
	return strings.Join(parts, " | ")
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
