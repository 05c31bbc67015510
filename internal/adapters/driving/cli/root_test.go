package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// Mock services shared by the command tests.

type mockAnswerService struct {
	err   error
	lastK int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastK = opts.K
	results := mockResults()
	return &domain.Answer{
		Text:       "The Acme Trail Runner is the best rated option for " + question + ".",
		Sources:    []string{"B001"},
		Confidence: domain.Ptr(0.75),
		Generation: "gen-1",
		Retrieved:  results,
	}, nil
}

func (m *mockAnswerService) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievalResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastK = k
	return mockResults(), nil
}

func mockResults() []domain.RetrievalResult {
	records := mockRecords()
	return []domain.RetrievalResult{
		{Document: domain.Document{SourceID: "B001", Text: "Trail Runner"}, Record: records[0], Score: 0.91, Rank: 1},
		{Document: domain.Document{SourceID: "B002", Text: "Road Runner"}, Record: records[1], Score: 0.64, Rank: 2},
	}
}

func mockRecords() []domain.ProductRecord {
	return []domain.ProductRecord{
		{ID: "B001", Title: "Acme Trail Runner", Brand: "Acme", Price: domain.Ptr(89.5), Rating: domain.Ptr(4.6), ReviewCount: domain.Ptr(1234)},
		{ID: "B002", Title: "Zoom Road Runner", Brand: "Zoom"},
	}
}

type mockCatalogService struct {
	err          error
	lastKeywords string
	lastLimit    int
}

func (m *mockCatalogService) Import(_ context.Context, path string) (*domain.ImportResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if strings.HasSuffix(path, ".missing") {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrNotFound)
	}
	return &domain.ImportResult{Imported: 2, Skipped: 1}, nil
}

func (m *mockCatalogService) Search(_ context.Context, keywords string, limit int) ([]domain.ProductRecord, error) {
	m.lastKeywords = keywords
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if keywords == "nothing" {
		return []domain.ProductRecord{}, nil
	}
	return mockRecords(), nil
}

func (m *mockCatalogService) Get(_ context.Context, id string) (*domain.ProductRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range mockRecords() {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) Count(_ context.Context) (int, error) {
	return len(mockRecords()), m.err
}

type mockIndexService struct {
	err       error
	published bool
	reindexed int
}

func mockInfo() *domain.IndexInfo {
	return &domain.IndexInfo{
		Generation: "gen-1",
		ModelID:    "hashing-v1-512",
		Dimensions: 512,
		Documents:  2,
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockIndexService) Rebuild(_ context.Context, _ []domain.ProductRecord) (*domain.IndexInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.published = true
	return mockInfo(), nil
}

func (m *mockIndexService) Reindex(ctx context.Context) (*domain.IndexInfo, error) {
	m.reindexed++
	return m.Rebuild(ctx, nil)
}

func (m *mockIndexService) Reload(_ context.Context) (*domain.IndexInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.published = true
	return mockInfo(), nil
}

func (m *mockIndexService) Info(_ context.Context) (*domain.IndexInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.published {
		return nil, domain.ErrIndexNotReady
	}
	return mockInfo(), nil
}

type mockSettingsService struct {
	settings domain.AppSettings
	setCalls map[string]string
	err      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		setCalls: make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if !strings.Contains(key, ".") {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.setCalls[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettingsService) Validate() error {
	if !m.settings.LLM.IsConfigured() {
		return errors.New("LLM provider not configured")
	}
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.err }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.err }

// setupTestServices installs mock services and returns a restore func.
func setupTestServices() func() {
	oldAnswer, oldCatalog, oldIndex, oldSettings := answerService, catalogService, indexService, settingsService

	SetServices(Services{
		Answer:   &mockAnswerService{},
		Catalog:  &mockCatalogService{},
		Index:    &mockIndexService{published: true},
		Settings: newMockSettingsService(),
	})

	return func() {
		answerService, catalogService, indexService, settingsService = oldAnswer, oldCatalog, oldIndex, oldSettings
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "shelfwise", rootCmd.Use)
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"ask", "search", "products", "import", "rebuild", "reindex", "reload", "info", "settings", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() {
		verbose = false
		logger.SetVerbose(false)
	}()

	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	_, err := executeCommand("--verbose", "version")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestSetServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	SetServices(Services{})
	assert.Nil(t, answerService)
	assert.Nil(t, catalogService)
	assert.Nil(t, indexService)
	assert.Nil(t, settingsService)
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
