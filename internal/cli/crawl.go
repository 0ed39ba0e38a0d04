package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/metrics"
	"github.com/gmviana/studysearch-go/internal/service"
)

var (
	crawlMaxPages    int
	crawlMaxDepth    int
	crawlDelay       time.Duration
	crawlSearchTypes []string
	crawlNoProgress  bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <seed-url>",
	Short: "Crawl a site and index its content",
	Long: `Crawl a site breadth-first from the seed URL, extract text from each
page, chunk it and write it to the vector index under the crawled
namespace.

Examples:
  studysearch crawl https://example.org/editais
  studysearch crawl https://example.org --max-pages 50 --max-depth 3
  studysearch crawl https://example.org --search-types public-exams,job-listings`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 0, "max pages to index (default from config)")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 0, "max link depth from the seed (default from config)")
	crawlCmd.Flags().DurationVar(&crawlDelay, "delay", 0, "pause between page fetches (default from config)")
	crawlCmd.Flags().StringSliceVarP(&crawlSearchTypes, "search-types", "t", nil, "search types this content serves")
	crawlCmd.Flags().BoolVar(&crawlNoProgress, "no-progress", false, "disable the interactive progress display")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seedURL := args[0]
	ctx := context.Background()

	pipeline, closePipeline, err := getPipeline()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer closePipeline()

	opts := service.CrawlOptions{
		MaxPages: cfg.MaxPages,
		MaxDepth: cfg.MaxDepth,
		Delay:    cfg.CrawlDelay,
	}
	if crawlMaxPages > 0 {
		opts.MaxPages = crawlMaxPages
	}
	if crawlMaxDepth > 0 {
		opts.MaxDepth = crawlMaxDepth
	}
	if crawlDelay > 0 {
		opts.Delay = crawlDelay
	}

	jobs := service.NewJobManager(dbClient)
	job, err := jobs.CreateJob(ctx, seedURL, crawlSearchTypes)
	if err != nil {
		return fmt.Errorf("create crawl job: %w", err)
	}

	if crawlNoProgress {
		jobs.Run(ctx, job, pipeline, opts)
		if job.Error != "" {
			return fmt.Errorf("crawl failed: %s", job.Error)
		}
		printReport(job.Report)
		if verbose {
			printTimings()
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		jobs.Run(ctx, job, pipeline, opts)
	}()

	if err := RunJobProgress(jobs, job.ID); err != nil {
		return err
	}
	<-done

	if job.Report != nil {
		printReport(job.Report)
	}
	return nil
}

func printTimings() {
	snapshot := collector.Snapshot()
	fmt.Println("\nTimings:")
	for _, entry := range []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"embed", snapshot.Embed},
		{"upsert", snapshot.Upsert},
	} {
		if entry.op == nil {
			continue
		}
		fmt.Printf("  %-8s %d calls, avg %.0fms, max %dms\n",
			entry.name, entry.op.Count, entry.op.AvgTimeMs, entry.op.MaxTimeMs)
	}
}

func printReport(report *service.CrawlReport) {
	if report == nil {
		return
	}
	fmt.Printf("\nPages visited:  %d\n", report.PagesVisited)
	fmt.Printf("Pages indexed:  %d\n", report.PagesIndexed)
	if report.PagesSkipped > 0 {
		fmt.Printf("Pages skipped:  %d (unchanged)\n", report.PagesSkipped)
	}
	fmt.Printf("Chunks written: %d\n", report.ChunksWritten)
	if len(report.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
