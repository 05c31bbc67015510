package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

func TestImportCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("import", "products.jsonl")

	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 products (1 skipped).")
}

func TestImportCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("import", "products.missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuildCmd_WithFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	index := &mockIndexService{}
	indexService = index

	out, err := executeCommand("rebuild", "products.csv")

	require.NoError(t, err)
	assert.Equal(t, 1, index.reindexed)
	assert.Contains(t, out, "Imported 2 products")
	assert.Contains(t, out, "Published generation gen-1")
	assert.Contains(t, out, "hashing-v1-512 (512 dimensions)")
}

func TestRebuildCmd_ImportFailureSkipsBuild(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	index := &mockIndexService{}
	indexService = index

	_, err := executeCommand("rebuild", "products.missing")

	require.Error(t, err)
	assert.Zero(t, index.reindexed)
}

func TestRebuildCmd_InProgress(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	indexService = &mockIndexService{err: domain.ErrRebuildInProgress}

	_, err := executeCommand("rebuild")

	assert.ErrorIs(t, err, domain.ErrRebuildInProgress)
}

func TestRebuildCmd_TooManyArgs(t *testing.T) {
	_, err := executeCommand("rebuild", "a.jsonl", "b.jsonl")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestReindexCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { indexJSON = false }()

	out, err := executeCommand("reindex", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"generation": "gen-1"`)
	assert.Contains(t, out, `"model_id": "hashing-v1-512"`)
}

func TestReloadCmd_NothingPersisted(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	indexService = &mockIndexService{err: domain.ErrNotFound}

	_, err := executeCommand("reload")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "shelfwise rebuild")
}

func TestReloadCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("reload")

	require.NoError(t, err)
	assert.Contains(t, out, "Loaded generation gen-1")
}

func TestInfoCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("info")

	require.NoError(t, err)
	assert.Contains(t, out, "Current generation gen-1")
	assert.Contains(t, out, "Documents:  2")
	assert.Contains(t, out, "Catalog:    2 products")
}

func TestInfoCmd_NotReady(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	indexService = &mockIndexService{}

	out, err := executeCommand("info")

	require.NoError(t, err)
	assert.Contains(t, out, "No index published")
}

func TestIndexCmds_ServiceNotConfigured(t *testing.T) {
	old := indexService
	indexService = nil
	defer func() { indexService = old }()

	for _, name := range []string{"rebuild", "reindex", "reload", "info"} {
		t.Run(name, func(t *testing.T) {
			_, err := executeCommand(name)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "index service not configured")
		})
	}
}
