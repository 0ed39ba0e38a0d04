package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/db"
	"github.com/gmviana/studysearch-go/internal/vector"
)

var (
	cleanupNamespace  string
	cleanupCategories []string
	cleanupYes        bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete indexed vectors by namespace and category",
	Long: `Delete vectors from the index before a full re-crawl or to retire a
data source.

Examples:
  studysearch cleanup --namespace crawled --yes
  studysearch cleanup --namespace crawled --categories job-listings --yes`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupNamespace, "namespace", vector.NamespaceCrawled, "namespace to delete from")
	cleanupCmd.Flags().StringSliceVar(&cleanupCategories, "categories", nil, "restrict deletion to these categories")
	cleanupCmd.Flags().BoolVar(&cleanupYes, "yes", false, "skip the confirmation prompt")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if cleanupNamespace != vector.NamespaceCurated && cleanupNamespace != vector.NamespaceCrawled {
		return fmt.Errorf("unknown namespace: %s", cleanupNamespace)
	}

	if !cleanupYes {
		fmt.Printf("Delete all vectors in namespace %q", cleanupNamespace)
		if len(cleanupCategories) > 0 {
			fmt.Printf(" with categories %v", cleanupCategories)
		}
		fmt.Print("? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	store := db.NewVectorStore(dbClient)
	err := store.DeleteByFilter(context.Background(), vector.Filter{
		Namespace:  cleanupNamespace,
		Categories: cleanupCategories,
	})
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Println("Cleanup complete.")
	return nil
}
