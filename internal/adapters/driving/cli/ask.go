package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

var (
	askK    int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the catalog",
	Long: `Retrieves the products most relevant to the question and asks the
configured LLM to answer from them alone. The answer lists the product IDs
it is based on.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of products to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	answer, err := answerService.Ask(cmd.Context(), args[0], domain.AskOptions{K: askK})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	outputAnswer(cmd, answer)
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		titles := make(map[string]string, len(answer.Retrieved))
		for i := range answer.Retrieved {
			titles[answer.Retrieved[i].Record.ID] = answer.Retrieved[i].Record.Title
		}

		cmd.Println()
		cmd.Println("Sources:")
		for _, id := range answer.Sources {
			if title := titles[id]; title != "" {
				cmd.Printf("  - %s  %s\n", id, title)
			} else {
				cmd.Printf("  - %s\n", id)
			}
		}
	}

	if answer.Confidence != nil {
		cmd.Printf("\nConfidence: %.2f\n", *answer.Confidence)
	}
	if answer.Warning != nil {
		cmd.Printf("\nWarning: %v\n", answer.Warning)
	}
	if answer.ContextTruncated {
		cmd.Println("\nNote: some retrieved products were trimmed to fit the model's context.")
	}
}
