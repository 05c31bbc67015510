package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/shelfwise/internal/adapters/driving/mcp"
	"github.com/custodia-labs/shelfwise/internal/adapters/driving/watch"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

The server exposes the ask, search, products, rebuild, reload and info tools.
With --watch it reloads the index whenever another shelfwise process
publishes a new generation.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  shelfwise mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  shelfwise mcp serve --port 8080

  # Follow rebuilds made from another terminal
  shelfwise mcp serve --watch

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "shelfwise": {
        "command": "/path/to/shelfwise",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("watch", false, "reload the index when it changes on disk")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	watching, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	ports := &mcp.Ports{
		Answer:  answerService,
		Catalog: catalogService,
		Index:   indexService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	}

	if !watching {
		return run(cmd.Context())
	}

	if indexService == nil {
		return errors.New("index service not configured")
	}
	watcher, err := watch.New(indexService, watchFiles...)
	if err != nil {
		return err
	}

	// The watcher stops when the server exits.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error {
		defer cancel()
		return run(ctx)
	})
	return g.Wait()
}
