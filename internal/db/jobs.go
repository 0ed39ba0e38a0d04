package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// CrawlJob is a persisted crawl run.
type CrawlJob struct {
	ID            *surrealmodels.RecordID `json:"id,omitempty"`
	SeedURL       string                  `json:"seed_url"`
	Status        string                  `json:"status"`
	PagesVisited  int                     `json:"pages_visited"`
	PagesIndexed  int                     `json:"pages_indexed"`
	ChunksWritten int                     `json:"chunks_written"`
	Error         *string                 `json:"error,omitempty"`
	Started       time.Time               `json:"started"`
	Finished      *time.Time              `json:"finished,omitempty"`
}

// CreateCrawlJob persists a new pending crawl job.
func (c *Client) CreateCrawlJob(ctx context.Context, id, seedURL string) error {
	sql := `
		UPSERT type::record("crawl_job", $id) SET
			seed_url = $seed_url,
			status = $status,
			pages_visited = 0,
			pages_indexed = 0,
			chunks_written = 0
	`
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":       id,
		"seed_url": seedURL,
		"status":   "pending",
	})
	if err != nil {
		return fmt.Errorf("create crawl job: %w", wrapQueryError(err))
	}
	return nil
}

// UpdateCrawlJobStatus updates the status of a crawl job.
func (c *Client) UpdateCrawlJobStatus(ctx context.Context, id, status string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("crawl_job", $id) SET status = $status
	`, map[string]any{"id": id, "status": status})
	if err != nil {
		return fmt.Errorf("update crawl job status: %w", wrapQueryError(err))
	}
	return nil
}

// UpdateCrawlJobProgress persists crawl progress counters.
func (c *Client) UpdateCrawlJobProgress(ctx context.Context, id string, visited, indexed, chunks int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("crawl_job", $id) SET
			pages_visited = $visited,
			pages_indexed = $indexed,
			chunks_written = $chunks
	`, map[string]any{
		"id":      id,
		"visited": visited,
		"indexed": indexed,
		"chunks":  chunks,
	})
	if err != nil {
		return fmt.Errorf("update crawl job progress: %w", wrapQueryError(err))
	}
	return nil
}

// CompleteCrawlJob marks a job finished with its final counters.
func (c *Client) CompleteCrawlJob(ctx context.Context, id string, visited, indexed, chunks int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("crawl_job", $id) SET
			status = $status,
			pages_visited = $visited,
			pages_indexed = $indexed,
			chunks_written = $chunks,
			finished = time::now()
	`, map[string]any{
		"id":      id,
		"status":  "completed",
		"visited": visited,
		"indexed": indexed,
		"chunks":  chunks,
	})
	if err != nil {
		return fmt.Errorf("complete crawl job: %w", wrapQueryError(err))
	}
	return nil
}

// FailCrawlJob marks a job failed with an error message.
func (c *Client) FailCrawlJob(ctx context.Context, id, errMsg string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("crawl_job", $id) SET
			status = $status,
			error = $error,
			finished = time::now()
	`, map[string]any{
		"id":     id,
		"status": "failed",
		"error":  errMsg,
	})
	if err != nil {
		return fmt.Errorf("fail crawl job: %w", wrapQueryError(err))
	}
	return nil
}

// ListCrawlJobs returns crawl jobs, most recent first.
func (c *Client) ListCrawlJobs(ctx context.Context, limit int) ([]CrawlJob, error) {
	if limit <= 0 {
		limit = 20
	}

	results, err := surrealdb.Query[[]CrawlJob](ctx, c.db, `
		SELECT * FROM crawl_job ORDER BY started DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list crawl jobs: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []CrawlJob{}, nil
	}
	return (*results)[0].Result, nil
}
