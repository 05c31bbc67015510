package domain

import "time"

// Document is the embeddable rendering of one ProductRecord.
// Documents are created during an index build and never mutated; a rebuild
// supersedes them.
type Document struct {
	// SourceID references ProductRecord.ID. It is a back-reference, not ownership.
	SourceID string `json:"source_id"`

	// Text is the normalised natural-language rendering of the record.
	Text string `json:"text"`

	// Embedding is the vector produced for Text.
	Embedding []float32 `json:"-"`
}

// IndexEntry is the persisted unit of an index generation.
// Position is dense and only stable within one generation.
type IndexEntry struct {
	Position  int
	Embedding []float32
	SourceID  string
}

// RetrievalResult is one ranked hit for a question.
type RetrievalResult struct {
	// Document is the matched document.
	Document Document `json:"document"`

	// Record is the product the document was built from.
	Record ProductRecord `json:"record"`

	// Score is the cosine similarity. Higher is more similar.
	Score float64 `json:"score"`

	// Rank is 1-based.
	Rank int `json:"rank"`
}

// IndexInfo describes a published index generation.
type IndexInfo struct {
	Generation string    `json:"generation"`
	ModelID    string    `json:"model_id"`
	Dimensions int       `json:"dimensions"`
	Documents  int       `json:"documents"`
	CreatedAt  time.Time `json:"created_at"`
}
