package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// captureOutput runs fn with rootCmd writing to a buffer.
func captureOutput(fn func()) string {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	fn()
	return buf.String()
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Find products similar to a query", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand("search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("search", "running shoes")

	assert.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Acme Trail Runner (0.91)")
	assert.Contains(t, out, "Acme | 89.50 | 4.6 stars | 1234 reviews")
}

func TestSearchCmd_ExecutesWithShortLimitFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchLimit = 10 }()

	mock := &mockAnswerService{}
	answerService = mock

	_, err := executeCommand("search", "-n", "5", "another query")

	assert.NoError(t, err)
	assert.Equal(t, 5, mock.lastK)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchJSON = false }()

	out, err := executeCommand("search", "--json", "test query")

	assert.NoError(t, err)
	assert.Contains(t, out, `"record"`)
	assert.Contains(t, out, `"score"`)
	assert.Contains(t, out, `"rank"`)
}

func TestSearchCmd_MinScore(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchMinScore = 0 }()

	out, err := executeCommand("search", "--min-score", "0.8", "running")

	require.NoError(t, err)
	assert.Contains(t, out, "Acme Trail Runner")
	assert.NotContains(t, out, "Zoom Road Runner")
}

func TestSearchCmd_IDs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchIDs = false }()

	out, err := executeCommand("search", "--ids", "running")

	require.NoError(t, err)
	assert.Equal(t, "B001\nB002\n", out)
}

func TestAboveScore(t *testing.T) {
	results := []domain.RetrievalResult{
		{Record: domain.ProductRecord{ID: "a"}, Score: 0.9, Rank: 1},
		{Record: domain.ProductRecord{ID: "b"}, Score: 0.5, Rank: 2},
		{Record: domain.ProductRecord{ID: "c"}, Score: 0.2, Rank: 3},
	}

	assert.Len(t, aboveScore(results, 0), 3)

	kept := aboveScore(results, 0.5)
	require.Len(t, kept, 2)
	assert.Equal(t, 2, kept[1].Rank)
	assert.Len(t, results, 3)

	assert.Empty(t, aboveScore(results, 0.95))
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	oldService := answerService
	answerService = nil
	defer func() {
		answerService = oldService
	}()

	_, err := executeCommand("search", "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "answer service not configured")
}

func TestSearchCmd_IndexNotReady(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	answerService = &mockAnswerService{err: domain.ErrIndexNotReady}

	_, err := executeCommand("search", "test")

	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	answerService = &mockAnswerService{err: errors.New("boom")}

	_, err := executeCommand("search", "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchJSON(rootCmd, []domain.RetrievalResult{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "[]")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, []domain.RetrievalResult{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}

func TestOutputSearchTable_WithoutTitle(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	results := []domain.RetrievalResult{
		{Record: domain.ProductRecord{ID: "B123"}, Score: 0.75, Rank: 1},
	}

	err := outputSearchTable(rootCmd, results)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "B123")
	assert.Contains(t, buf.String(), "0.75")
}
