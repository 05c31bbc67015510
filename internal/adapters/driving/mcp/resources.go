package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Shelfwise resources.
	uriScheme = "shelfwise://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Index != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "index",
			Name:        "index",
			Description: "The published index generation",
			MIMEType:    "application/json",
		}, s.handleIndexResource)
	}

	if s.ports.Catalog != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "products/{productId}",
			Name:        "product",
			Description: "A single imported product",
			MIMEType:    "application/json",
		}, s.handleProductResource)
	}
}

// handleIndexResource describes the published generation.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info, err := s.ports.Index.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}

	return jsonResource(req.Params.URI, s.toIndexOutput(ctx, info))
}

// handleProductResource returns one product from the catalog.
func (s *Server) handleProductResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract productId from URI: shelfwise://products/{productId}
	id := extractProductID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Catalog.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, toProductOutput(*rec))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProductID extracts the product ID from a URI like shelfwise://products/{productId}.
func extractProductID(uri string) string {
	const prefix = uriScheme + "products/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
