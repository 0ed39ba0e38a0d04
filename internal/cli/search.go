package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/models"
	"github.com/gmviana/studysearch-go/internal/search"
)

var (
	searchTypes       []string
	searchLimit       int
	searchCrawledOnly bool
	searchNoCrawled   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the curated and crawled indexes",
	Long: `Search the vector index using semantic similarity.

By default both the curated study-material index and the crawled-content
index are queried and merged. Near-tied curated matches are listed as
alternatives instead of auto-picking one.

Examples:
  studysearch search "auditor vacancies"
  studysearch search "tax law changes" --types legislation
  studysearch search "civil service exam" --crawled-only
  studysearch search "study plan" --no-crawled -n 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchTypes, "types", "t", nil, "search types (inferred from keywords when omitted)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
	searchCmd.Flags().BoolVar(&searchCrawledOnly, "crawled-only", false, "search only crawled site content")
	searchCmd.Flags().BoolVar(&searchNoCrawled, "no-crawled", false, "search only the curated index")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	aggregator, err := getAggregator()
	if err != nil {
		return fmt.Errorf("init search: %w", err)
	}

	if searchCrawledOnly {
		results, err := aggregator.CrawledOnly(ctx, query, searchTypes, searchLimit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		printResults(results)
		return nil
	}

	response, err := aggregator.Integrated(ctx, query, search.Options{
		SearchTypes:         searchTypes,
		IncludeCrawledSites: !searchNoCrawled,
		MaxResults:          searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(response.Alternatives) > 0 {
		fmt.Printf("Multiple close matches, pick one:\n\n")
		printResults(response.Alternatives)
		return nil
	}

	printResults(response.Results)
	if len(response.Results) > 0 {
		fmt.Printf("Sources: %d curated, %d crawled\n", response.Breakdown.Curated, response.Breakdown.Crawled)
	}
	return nil
}

func printResults(results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, result := range results {
		fmt.Printf("%d. %s [%s, %.2f]\n", i+1, result.Title, result.Origin, result.Similarity)
		content := result.Content
		if len(content) > 160 {
			content = content[:160] + "..."
		}
		fmt.Printf("   %s\n", content)
		if verbose && result.SourceURL != "" {
			fmt.Printf("   %s\n", result.SourceURL)
		}
		fmt.Println()
	}
}
