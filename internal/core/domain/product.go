package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxRating is the upper bound of the star rating scale.
const MaxRating = 5.0

// ProductRecord is a scraped product as supplied by the catalog.
// Records are read-only inputs to the index pipeline. Optional values
// are pointers and nil means the scraper could not find the field.
type ProductRecord struct {
	// ID is the unique, stable key of the product (the ASIN for Amazon).
	ID string `json:"id"`

	// Title is the product name as listed.
	Title string `json:"title"`

	// Brand is the manufacturer or seller brand, if known.
	Brand string `json:"brand,omitempty"`

	// Price in the catalog's currency unit. The core does not convert currencies.
	Price *float64 `json:"price,omitempty"`

	// Rating on a 0-5 scale.
	Rating *float64 `json:"rating,omitempty"`

	// ReviewCount is the number of customer reviews.
	ReviewCount *int `json:"review_count,omitempty"`

	// ImageURL links to the primary product image.
	ImageURL string `json:"image_url,omitempty"`

	// ProductURL links to the product page.
	ProductURL string `json:"product_url,omitempty"`
}

// Validate checks the record at the catalog boundary.
// All failures wrap ErrInvalidInput.
func (r ProductRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: product %s has no title", ErrInvalidInput, r.ID)
	}
	if r.Price != nil && (*r.Price < 0 || math.IsNaN(*r.Price) || math.IsInf(*r.Price, 0)) {
		return fmt.Errorf("%w: product %s has invalid price %v", ErrInvalidInput, r.ID, *r.Price)
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > MaxRating || math.IsNaN(*r.Rating)) {
		return fmt.Errorf("%w: product %s has rating %v outside 0-5", ErrInvalidInput, r.ID, *r.Rating)
	}
	if r.ReviewCount != nil && *r.ReviewCount < 0 {
		return fmt.Errorf("%w: product %s has negative review count", ErrInvalidInput, r.ID)
	}
	return nil
}

// Ptr returns a pointer to v. Handy for building optional record fields.
func Ptr[T any](v T) *T {
	return &v
}

// ImportResult summarises a catalog import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
