package mcp

import (
	"context"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer    *domain.Answer
	results   []domain.RetrievalResult
	err       error
	lastK     int
	lastQuery string
}

func (m *mockAnswerService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastQuery = question
	m.lastK = opts.K
	return m.answer, m.err
}

func (m *mockAnswerService) Retrieve(_ context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	m.lastQuery = question
	m.lastK = k
	return m.results, m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	records   []domain.ProductRecord
	imported  *domain.ImportResult
	err       error
	lastPath  string
	lastLimit int
}

func (m *mockCatalogService) Import(_ context.Context, path string) (*domain.ImportResult, error) {
	m.lastPath = path
	if m.err != nil {
		return nil, m.err
	}
	return m.imported, nil
}

func (m *mockCatalogService) Search(_ context.Context, _ string, limit int) ([]domain.ProductRecord, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockCatalogService) Get(_ context.Context, id string) (*domain.ProductRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) Count(_ context.Context) (int, error) {
	return len(m.records), m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	info     *domain.IndexInfo
	err      error
	reindex  int
	reloaded int
}

func (m *mockIndexService) Rebuild(_ context.Context, _ []domain.ProductRecord) (*domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Reindex(_ context.Context) (*domain.IndexInfo, error) {
	m.reindex++
	return m.info, m.err
}

func (m *mockIndexService) Reload(_ context.Context) (*domain.IndexInfo, error) {
	m.reloaded++
	return m.info, m.err
}

func (m *mockIndexService) Info(_ context.Context) (*domain.IndexInfo, error) {
	if m.info == nil && m.err == nil {
		return nil, domain.ErrIndexNotReady
	}
	return m.info, m.err
}
