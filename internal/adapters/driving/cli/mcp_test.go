package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)

	watchFlag := mcpServeCmd.Flags().Lookup("watch")
	require.NotNil(t, watchFlag)
	assert.Equal(t, "false", watchFlag.DefValue)
}

func TestMCPServeCmd_RequiresAnswerService(t *testing.T) {
	old := answerService
	answerService = nil
	defer func() { answerService = old }()

	_, err := executeCommand("mcp", "serve")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "answer service is required")
}

func TestMCPServeCmd_WatchRequiresFiles(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldFiles := watchFiles
	SetWatchFiles()
	defer func() { watchFiles = oldFiles }()
	defer func() { _ = mcpServeCmd.Flags().Set("watch", "false") }()

	_, err := executeCommand("mcp", "serve", "--watch")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no files to watch")
}
