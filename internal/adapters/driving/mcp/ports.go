package mcp

import (
	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions and retrieves similar products.
	Answer driving.AnswerService

	// Catalog looks up imported products. Optional.
	Catalog driving.CatalogService

	// Index rebuilds, reloads and describes the index. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
