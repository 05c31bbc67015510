package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Index Errors.

	// ErrEmptyInput indicates an operation received nothing to work on,
	// such as building an index from zero records.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch indicates embeddings of different lengths were
	// mixed in one index, or a query does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex indicates a persisted index is inconsistent with its
	// declared dimension or entry count.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmbeddingModelMismatch indicates the index was built with a
	// different embedding model than the one configured for queries.
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrIndexNotReady indicates no index generation has been published yet.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrRebuildFailed indicates a rebuild aborted. Nothing was published.
	ErrRebuildFailed = errors.New("rebuild failed")

	// ErrRebuildInProgress indicates another rebuild holds the destination.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrDuplicateRecord indicates two records share an identifier.
	ErrDuplicateRecord = errors.New("duplicate record")

	// Answer Errors.

	// ErrMalformedModelOutput indicates the model reply could not be parsed
	// into a structured answer.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrUngroundedCitation marks citations that were not in the retrieved set.
	// It is never returned as a failure, only through UngroundedCitationWarning.
	ErrUngroundedCitation = errors.New("ungrounded citation")

	// ErrModelTimeout indicates the language model did not answer in time.
	ErrModelTimeout = errors.New("model timeout")

	// Provider Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// DimensionMismatchError reports which entry broke the index dimension.
type DimensionMismatchError struct {
	// Position is the offending entry, or -1 for a query vector.
	Position int
	Want     int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: query has %d dimensions, index has %d", ErrDimensionMismatch, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: entry %d has %d dimensions, want %d", ErrDimensionMismatch, e.Position, e.Got, e.Want)
}

// Is matches ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// RebuildError names the record that aborted a rebuild.
// It matches ErrRebuildFailed as well as the underlying cause.
type RebuildError struct {
	Identifier string
	Err        error
}

func (e *RebuildError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("%s: %v", ErrRebuildFailed, e.Err)
	}
	return fmt.Sprintf("%s at record %s: %v", ErrRebuildFailed, e.Identifier, e.Err)
}

// Unwrap exposes both ErrRebuildFailed and the cause to errors.Is/As.
func (e *RebuildError) Unwrap() []error {
	return []error{ErrRebuildFailed, e.Err}
}

// UngroundedCitationWarning lists citations stripped from an answer because
// they were not among the retrieved documents. It is metadata, not a failure.
type UngroundedCitationWarning struct {
	Dropped []string `json:"dropped"`
}

func (w *UngroundedCitationWarning) Error() string {
	return fmt.Sprintf("%s: removed %s", ErrUngroundedCitation, strings.Join(w.Dropped, ", "))
}

// Is matches ErrUngroundedCitation.
func (w *UngroundedCitationWarning) Is(target error) bool {
	return target == ErrUngroundedCitation
}
