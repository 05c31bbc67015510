// Package domain defines the core business entities for shelfwise.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ProductRecord: A scraped product, validated at the catalog boundary
//   - Document: The embeddable text rendering of one ProductRecord
//   - IndexEntry: The persisted unit of a vector index generation
//   - RetrievalResult: One ranked hit for a question
//   - Answer: A grounded, source-attributed reply
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
