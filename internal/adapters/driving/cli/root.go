// Package cli provides the shelfwise command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/core/ports/driving"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services injected by the composition root.
var (
	answerService   driving.AnswerService
	catalogService  driving.CatalogService
	indexService    driving.IndexService
	settingsService driving.SettingsService
)

// watchFiles are the persisted index locations `mcp serve --watch` follows.
var watchFiles []string

// startupWarnings are non-fatal wiring issues, shown with --verbose.
var startupWarnings []string

var rootCmd = &cobra.Command{
	Use:   "shelfwise",
	Short: "Ask questions about a product catalog",
	Long: `Shelfwise indexes a scraped product catalog and answers natural-language
questions about it, citing the products each answer is based on.

Import a catalog and build the index:
  shelfwise rebuild products.jsonl

Then ask:
  shelfwise ask "which wireless earbuds have the best rating under 50?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, w := range startupWarnings {
			logger.Debug("%s", w)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Services bundles the driving ports the commands use.
type Services struct {
	Answer   driving.AnswerService
	Catalog  driving.CatalogService
	Index    driving.IndexService
	Settings driving.SettingsService
}

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	answerService = s.Answer
	catalogService = s.Catalog
	indexService = s.Index
	settingsService = s.Settings
}

// SetVersion sets the version reported by `shelfwise version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetWatchFiles sets the files `mcp serve --watch` reloads on.
func SetWatchFiles(files ...string) {
	watchFiles = files
}

// SetStartupWarnings records non-fatal issues found while wiring services.
func SetStartupWarnings(warnings ...string) {
	startupWarnings = warnings
}

// ExecuteContext runs the root command. ctx is cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
