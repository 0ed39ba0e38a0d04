package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/search"
)

var (
	askTypes     []string
	askLimit     int
	askNoCrawled bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and get an LLM-synthesized answer",
	Long: `Ask a question about the indexed content and get an answer synthesized
by the configured LLM from the top search results.

Examples:
  studysearch ask "what are the requirements for the auditor exam?"
  studysearch ask "which sites list remote jobs?" --types job-listings
  studysearch ask "summarize the new decree" --no-crawled`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askTypes, "types", "t", nil, "search types (inferred from keywords when omitted)")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 10, "max context results")
	askCmd.Flags().BoolVar(&askNoCrawled, "no-crawled", false, "answer only from the curated index")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	aggregator, err := getAggregator()
	if err != nil {
		return fmt.Errorf("init search: %w", err)
	}
	llmModel, err := getModel()
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	answer, response, err := aggregator.Answer(ctx, query, llmModel, search.Options{
		SearchTypes:         askTypes,
		IncludeCrawledSites: !askNoCrawled,
		MaxResults:          askLimit,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(answer)
	if verbose {
		fmt.Printf("\nAnswered by %s\n", llmModel.Model())
	}

	if len(response.Results) > 0 {
		fmt.Printf("\nSources (%d curated, %d crawled):\n", response.Breakdown.Curated, response.Breakdown.Crawled)
		for _, result := range response.Results {
			fmt.Printf("  - %s", result.Title)
			if verbose && result.SourceURL != "" {
				fmt.Printf(" <%s>", result.SourceURL)
			}
			fmt.Println()
		}
	}
	return nil
}
