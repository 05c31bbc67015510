package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

var (
	searchLimit    int
	searchMinScore float64
	searchJSON     bool
	searchIDs      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find products similar to a query",
	Long: `Embeds the query and returns the most similar products from the
published index, best first, without asking the LLM.

Examples:
  shelfwise search "noise cancelling headphones"
  shelfwise search -n 3 --min-score 0.5 "usb-c charger"
  shelfwise search --ids "standing desk" | xargs -n1 shelfwise products get`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this similarity")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchIDs, "ids", false, "print only product IDs, one per line")
	searchCmd.MarkFlagsMutuallyExclusive("json", "ids")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	results, err := answerService.Retrieve(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results = aboveScore(results, searchMinScore)

	switch {
	case searchJSON:
		return outputSearchJSON(cmd, results)
	case searchIDs:
		for _, r := range results {
			cmd.Println(r.Record.ID)
		}
		return nil
	default:
		return outputSearchTable(cmd, results)
	}
}

// aboveScore keeps results scoring at least minScore. Ranks are unchanged.
func aboveScore(results []domain.RetrievalResult, minScore float64) []domain.RetrievalResult {
	if minScore <= 0 {
		return results
	}
	kept := results[:0:0]
	for _, r := range results {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	return outputJSON(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, r := range results {
		title := r.Record.Title
		if title == "" {
			title = r.Record.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", r.Rank, title, r.Score)
		cmd.Printf("      ID: %s\n", r.Record.ID)
		if details := productDetails(r.Record); details != "" {
			cmd.Printf("      %s\n", details)
		}
		cmd.Println()
	}

	return nil
}
