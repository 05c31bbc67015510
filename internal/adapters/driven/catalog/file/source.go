// Package file reads product records from scraper output files.
//
// Two formats are accepted: JSON Lines as written by the scraper (one
// product object per line) and CSV with a header row as written by the
// feature matrix export. Scraped values are normalised on the way in:
// "PKR 84,676.80" becomes 84676.8, "2.3K" becomes 2300 and
// "4.5 out of 5 stars" becomes 4.5. Rows without an id or title, and rows
// that fail record validation, are skipped.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// maxLineSize bounds a single JSON line.
const maxLineSize = 4 << 20

// fieldAliases maps accepted column or key names to record fields.
var fieldAliases = map[string]string{
	"id":           "id",
	"asin":         "id",
	"title":        "title",
	"name":         "title",
	"brand":        "brand",
	"price":        "price",
	"rating":       "rating",
	"stars":        "rating",
	"review_count": "review_count",
	"reviews":      "review_count",
	"image_url":    "image_url",
	"image":        "image_url",
	"product_url":  "product_url",
	"url":          "product_url",
}

// Source reads product records from a local file.
type Source struct{}

// NewSource creates a file record source.
func NewSource() *Source {
	return &Source{}
}

// Records reads every product in the file at path. The format is chosen by
// extension: .csv is CSV, anything else is JSON Lines. A JSON file holding a
// single array of products is accepted as well.
func (s *Source) Records(ctx context.Context, path string) ([]domain.ProductRecord, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var rows []map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(ctx, f)
	default:
		rows, err = readJSON(ctx, f)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	records := make([]domain.ProductRecord, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		rec, ok := toRecord(row)
		if !ok {
			logger.Debug("catalog: skipping row %d without id or title", i+1)
			skipped++
			continue
		}
		if err := rec.Validate(); err != nil {
			logger.Debug("catalog: skipping row %d: %v", i+1, err)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	logger.Debug("catalog: read %d records from %s (%d skipped)", len(records), path, skipped)
	return records, skipped, nil
}

func readJSON(ctx context.Context, r io.Reader) ([]map[string]any, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, err
	}
	if first == '[' {
		var rows []map[string]any
		if err := json.NewDecoder(br).Decode(&rows); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return rows, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var rows []map[string]any
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(text, &row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidInput, line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// peekNonSpace returns the first non-whitespace byte without consuming it,
// skipping a leading byte order mark. An empty input returns zero.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	for {
		b, err := br.Peek(1)
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}

func readCSV(ctx context.Context, r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", domain.ErrInvalidInput, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []map[string]any
	for n := 2; ; n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		row := make(map[string]any, len(header))
		for i, v := range fields {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// toRecord maps a raw row onto a record. It reports false when the row has
// no id or title.
func toRecord(row map[string]any) (domain.ProductRecord, bool) {
	fields := make(map[string]any, len(row))
	for k, v := range row {
		if name, ok := fieldAliases[strings.ToLower(k)]; ok {
			if _, seen := fields[name]; !seen || isBlank(fields[name]) {
				fields[name] = v
			}
		}
	}

	rec := domain.ProductRecord{
		ID:         strings.TrimSpace(stringValue(fields["id"])),
		Title:      strings.TrimSpace(stringValue(fields["title"])),
		Brand:      normaliseBrand(stringValue(fields["brand"])),
		ImageURL:   strings.TrimSpace(stringValue(fields["image_url"])),
		ProductURL: strings.TrimSpace(stringValue(fields["product_url"])),
		Price:      ParsePrice(fields["price"]),
		Rating:     ParseRating(fields["rating"]),
	}
	if n := ParseReviewCount(fields["review_count"]); n != nil {
		rec.ReviewCount = n
	}
	if rec.ID == "" || rec.Title == "" {
		return domain.ProductRecord{}, false
	}
	return rec, true
}

func isBlank(v any) bool {
	return v == nil || strings.TrimSpace(stringValue(v)) == ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// normaliseBrand strips the storefront wording scraped from byline links.
func normaliseBrand(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Visit the ")
	s = strings.TrimPrefix(s, "Brand: ")
	s = strings.TrimSuffix(s, " Store")
	return strings.TrimSpace(s)
}

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	countPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([KM])?`)
)

// ParsePrice reads a price such as 39.99, "$39.99" or "PKR 84,676.80".
// Missing, unlisted and negative prices return nil.
func ParsePrice(v any) *float64 {
	if f, ok := v.(float64); ok {
		return validFloat(f, 0, math.MaxFloat64)
	}
	s := strings.ReplaceAll(stringValue(v), ",", "")
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return validFloat(f, 0, math.MaxFloat64)
}

// ParseRating reads a rating such as 4.5 or "4.5 out of 5 stars".
// Values outside the 0-5 scale return nil.
func ParseRating(v any) *float64 {
	if f, ok := v.(float64); ok {
		return validFloat(f, 0, domain.MaxRating)
	}
	m := numberPattern.FindString(stringValue(v))
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return validFloat(f, 0, domain.MaxRating)
}

// ParseReviewCount reads a count such as 1234, "(1,234)" or "2.3K".
func ParseReviewCount(v any) *int {
	if f, ok := v.(float64); ok {
		return validCount(f)
	}
	s := strings.ReplaceAll(stringValue(v), ",", "")
	m := countPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	switch strings.ToUpper(m[2]) {
	case "K":
		f *= 1_000
	case "M":
		f *= 1_000_000
	}
	return validCount(math.Round(f))
}

// validCount converts f to a count. Negative, non-finite and values too
// large for an int return nil.
func validCount(f float64) *int {
	if math.IsNaN(f) || f < 0 || f >= math.MaxInt {
		return nil
	}
	n := int(f)
	return &n
}

func validFloat(f, lo, hi float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < lo || f > hi {
		return nil
	}
	return &f
}
