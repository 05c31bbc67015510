package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// Placeholders rendered for missing optional fields.
const (
	placeholderBrand   = "unknown brand"
	placeholderPrice   = "price not listed"
	placeholderRating  = "no rating available"
	placeholderReviews = "no review data"
)

// priceBands are the upper bounds used to phrase a price as "under N".
var priceBands = []float64{10, 25, 50, 100, 200, 500, 1000}

// BuildDocumentText renders a record as the text that gets embedded and
// shown to the model. Output is a pure function of the record.
//
//	Product: Massage Gun X
//	ID: A1
//	Brand: unknown brand
//	Price: 39.99 (under 50)
//	Rating: 4.5 out of 5 stars
//	Reviews: no review data
func BuildDocumentText(r domain.ProductRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Product: %s\n", collapse(r.Title))
	fmt.Fprintf(&b, "ID: %s\n", strings.TrimSpace(r.ID))

	brand := collapse(r.Brand)
	if brand == "" {
		brand = placeholderBrand
	}
	fmt.Fprintf(&b, "Brand: %s\n", brand)

	if r.Price != nil {
		fmt.Fprintf(&b, "Price: %s (%s)\n", strconv.FormatFloat(*r.Price, 'f', 2, 64), priceBand(*r.Price))
	} else {
		fmt.Fprintf(&b, "Price: %s\n", placeholderPrice)
	}

	if r.Rating != nil {
		fmt.Fprintf(&b, "Rating: %.1f out of 5 stars\n", *r.Rating)
	} else {
		fmt.Fprintf(&b, "Rating: %s\n", placeholderRating)
	}

	switch {
	case r.ReviewCount == nil:
		fmt.Fprintf(&b, "Reviews: %s", placeholderReviews)
	case *r.ReviewCount == 1:
		b.WriteString("Reviews: 1 customer review")
	default:
		fmt.Fprintf(&b, "Reviews: %d customer reviews", *r.ReviewCount)
	}

	return b.String()
}

func priceBand(p float64) string {
	for _, limit := range priceBands {
		if p < limit {
			return "under " + strconv.FormatFloat(limit, 'f', -1, 64)
		}
	}
	return "over " + strconv.FormatFloat(priceBands[len(priceBands)-1], 'f', -1, 64)
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
