package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

const defaultProductLimit = 20

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the product catalog"`
	K        int    `json:"k,omitempty" jsonschema:"number of products to retrieve as context (default 10)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer           string          `json:"answer"`
	Sources          []ProductOutput `json:"sources"`
	Confidence       *float64        `json:"confidence,omitempty"`
	DroppedCitations []string        `json:"dropped_citations,omitempty"`
	Generation       string          `json:"generation,omitempty"`
	ContextTruncated bool            `json:"context_truncated,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar products for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Product ProductOutput `json:"product"`
	Rank    int           `json:"rank"`
	Score   float64       `json:"score"`
	Text    string        `json:"text,omitempty"`
}

// ProductOutput is a product as returned to the assistant.
type ProductOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	ProductURL  string   `json:"product_url,omitempty"`
}

// ProductsInput is the input schema for the products tool.
type ProductsInput struct {
	ID       string `json:"id,omitempty" jsonschema:"return the single product with this id"`
	Keywords string `json:"keywords,omitempty" jsonschema:"words that must all appear in the title or brand"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of products to return (default 20)"`
}

// ProductsOutput is the output schema for the products tool.
type ProductsOutput struct {
	Products []ProductOutput `json:"products"`
	Count    int             `json:"count"`
}

// RebuildInput is the input schema for the rebuild tool.
type RebuildInput struct {
	Path string `json:"path,omitempty" jsonschema:"catalog file to import before rebuilding (JSONL, JSON or CSV)"`
}

// RebuildOutput is the output schema for the rebuild tool.
type RebuildOutput struct {
	Index    IndexOutput `json:"index"`
	Imported int         `json:"imported,omitempty"`
	Skipped  int         `json:"skipped,omitempty"`
}

// IndexOutput describes the published index generation.
type IndexOutput struct {
	Generation string `json:"generation"`
	ModelID    string `json:"model_id"`
	Dimensions int    `json:"dimensions"`
	Documents  int    `json:"documents"`
	CreatedAt  string `json:"created_at"`
	Products   int    `json:"products,omitempty"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
// Catalog and index tools are only offered when their ports are set.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the product catalog, citing the products used",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the products most similar to a piece of text",
	}, s.handleSearch)

	if s.ports.Catalog != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "products",
			Description: "Look up imported products by id or keyword",
		}, s.handleProducts)
	}

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "rebuild",
			Description: "Rebuild the index, optionally importing a catalog file first",
		}, s.handleRebuild)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reload",
			Description: "Publish the most recently persisted index generation",
		}, s.handleReload)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "info",
			Description: "Describe the published index generation",
		}, s.handleInfo)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.AskOptions{K: input.K})
	if err != nil {
		return nil, AskOutput{}, err
	}

	records := make(map[string]domain.ProductRecord, len(answer.Retrieved))
	for i := range answer.Retrieved {
		records[answer.Retrieved[i].Record.ID] = answer.Retrieved[i].Record
	}

	output := AskOutput{
		Answer:           answer.Text,
		Sources:          make([]ProductOutput, 0, len(answer.Sources)),
		Confidence:       answer.Confidence,
		Generation:       answer.Generation,
		ContextTruncated: answer.ContextTruncated,
	}
	for _, id := range answer.Sources {
		if rec, ok := records[id]; ok {
			output.Sources = append(output.Sources, toProductOutput(rec))
		} else {
			output.Sources = append(output.Sources, ProductOutput{ID: id})
		}
	}
	if answer.Warning != nil {
		output.DroppedCitations = answer.Warning.Dropped
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Answer.Retrieve(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			Product: toProductOutput(results[i].Record),
			Rank:    results[i].Rank,
			Score:   results[i].Score,
			Text:    results[i].Document.Text,
		}
	}

	return nil, output, nil
}

// handleProducts handles the products tool invocation.
func (s *Server) handleProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProductsInput,
) (*mcp.CallToolResult, ProductsOutput, error) {
	if input.ID != "" {
		rec, err := s.ports.Catalog.Get(ctx, input.ID)
		if err != nil {
			return nil, ProductsOutput{}, err
		}
		return nil, ProductsOutput{Products: []ProductOutput{toProductOutput(*rec)}, Count: 1}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}

	records, err := s.ports.Catalog.Search(ctx, input.Keywords, limit)
	if err != nil {
		return nil, ProductsOutput{}, err
	}

	output := ProductsOutput{
		Products: make([]ProductOutput, len(records)),
		Count:    len(records),
	}
	for i := range records {
		output.Products[i] = toProductOutput(records[i])
	}

	return nil, output, nil
}

// handleRebuild handles the rebuild tool invocation.
func (s *Server) handleRebuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	var output RebuildOutput

	if input.Path != "" {
		if s.ports.Catalog == nil {
			return nil, RebuildOutput{}, errors.New("catalog import is not available")
		}
		result, err := s.ports.Catalog.Import(ctx, input.Path)
		if err != nil {
			return nil, RebuildOutput{}, err
		}
		output.Imported = result.Imported
		output.Skipped = result.Skipped
	}

	info, err := s.ports.Index.Reindex(ctx)
	if err != nil {
		return nil, RebuildOutput{}, err
	}
	output.Index = s.toIndexOutput(ctx, info)

	return nil, output, nil
}

// handleReload handles the reload tool invocation.
func (s *Server) handleReload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	info, err := s.ports.Index.Reload(ctx)
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, s.toIndexOutput(ctx, info), nil
}

// handleInfo handles the info tool invocation.
func (s *Server) handleInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	info, err := s.ports.Index.Info(ctx)
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, s.toIndexOutput(ctx, info), nil
}

// toIndexOutput converts info and adds the catalog size when known.
func (s *Server) toIndexOutput(ctx context.Context, info *domain.IndexInfo) IndexOutput {
	out := IndexOutput{
		Generation: info.Generation,
		ModelID:    info.ModelID,
		Dimensions: info.Dimensions,
		Documents:  info.Documents,
		CreatedAt:  info.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.ports.Catalog != nil {
		if n, err := s.ports.Catalog.Count(ctx); err == nil {
			out.Products = n
		}
	}
	return out
}

func toProductOutput(rec domain.ProductRecord) ProductOutput {
	return ProductOutput{
		ID:          rec.ID,
		Title:       rec.Title,
		Brand:       rec.Brand,
		Price:       rec.Price,
		Rating:      rec.Rating,
		ReviewCount: rec.ReviewCount,
		ProductURL:  rec.ProductURL,
	}
}
