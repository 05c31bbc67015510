package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

var indexJSON bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a product catalog",
	Long: `Replaces the stored catalog with the products in file.

Supported formats are JSON Lines (.jsonl), a JSON array (.json) and CSV
(.csv) with a header row. Rows without an ID or title are skipped. The index
is not rebuilt; run 'shelfwise reindex' afterwards, or use 'shelfwise rebuild'
to do both.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [file]",
	Short: "Build and publish a new index",
	Long: `Imports file when given, then embeds every catalog product and
publishes the result as a new index generation. If the build fails the
previous generation keeps serving.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebuild,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from the stored catalog",
	Long: `Rebuilds the index from the stored catalog. When the catalog is empty
the persisted index is loaded instead.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Load the persisted index",
	Args:  cobra.NoArgs,
	RunE:  runReload,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the published index",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	for _, c := range []*cobra.Command{rebuildCmd, reindexCmd, reloadCmd, infoCmd} {
		c.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	}
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(infoCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	result, err := catalogService.Import(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d products (%d skipped).\n", result.Imported, result.Skipped)
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	if len(args) > 0 {
		if err := runImport(cmd, args); err != nil {
			return err
		}
	}

	cmd.Println("Building index...")
	info, err := indexService.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	return outputIndexInfo(cmd, "Published", info)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	info, err := indexService.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	return outputIndexInfo(cmd, "Published", info)
}

func runReload(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	info, err := indexService.Reload(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.New("no persisted index, run 'shelfwise rebuild' first")
		}
		return fmt.Errorf("reload failed: %w", err)
	}

	return outputIndexInfo(cmd, "Loaded", info)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	info, err := indexService.Info(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			cmd.Println("No index published. Run 'shelfwise rebuild [file]' to build one.")
			return nil
		}
		return fmt.Errorf("failed to get index info: %w", err)
	}

	if err := outputIndexInfo(cmd, "Current", info); err != nil {
		return err
	}
	if catalogService != nil && !indexJSON {
		if n, err := catalogService.Count(cmd.Context()); err == nil {
			cmd.Printf("  Catalog:    %d products\n", n)
		}
	}
	return nil
}

func outputIndexInfo(cmd *cobra.Command, verb string, info *domain.IndexInfo) error {
	if indexJSON {
		return outputJSON(cmd, info)
	}

	cmd.Printf("%s generation %s\n", verb, info.Generation)
	cmd.Printf("  Documents:  %d\n", info.Documents)
	cmd.Printf("  Model:      %s (%d dimensions)\n", info.ModelID, info.Dimensions)
	cmd.Printf("  Created:    %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
