package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/models"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List persisted crawl jobs",
	Long: `List crawl jobs recorded in the database, most recent first.

Examples:
  studysearch jobs
  studysearch jobs -n 50`,
	Args: cobra.NoArgs,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "max jobs to list")
}

func runJobs(cmd *cobra.Command, args []string) error {
	jobs, err := dbClient.ListCrawlJobs(context.Background(), jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-10s %-12s %-10s %-8s %-8s %-8s %s\n", "ID", "STATUS", "VISITED", "INDEXED", "CHUNKS", "STARTED", "SEED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, job := range jobs {
		id := "-"
		if job.ID != nil {
			if s, err := models.RecordIDString(*job.ID); err == nil {
				id = s
			}
		}
		started := job.Started.Format("15:04:05")
		fmt.Printf("%-10s %-12s %-10d %-8d %-8d %-8s %s\n",
			id, job.Status, job.PagesVisited, job.PagesIndexed, job.ChunksWritten, started, job.SeedURL)
		if job.Error != nil && *job.Error != "" {
			fmt.Printf("             error: %s\n", *job.Error)
		}
		if job.Finished != nil {
			duration := job.Finished.Sub(job.Started)
			fmt.Printf("             duration: %s\n", duration.Round(time.Second))
		}
	}

	return nil
}
