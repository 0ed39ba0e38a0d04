package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gmviana/studysearch-go/internal/db"
)

// JobStatus represents the state of a background crawl job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents one background crawl-and-index run.
type Job struct {
	ID          string
	SeedURL     string
	SearchTypes []string
	Status      JobStatus
	Visited     int
	Indexed     int
	Chunks      int
	Report      *CrawlReport
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time

	mu                 sync.RWMutex
	lastProgressUpdate time.Time // For debouncing DB writes
}

// Snapshot returns a consistent copy of the job's mutable counters.
func (j *Job) Snapshot() (status JobStatus, visited, indexed, chunks int) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status, j.Visited, j.Indexed, j.Chunks
}

// JobManager tracks and persists background crawl jobs.
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
	db   *db.Client
}

// NewJobManager creates a job manager. dbClient may be nil for in-memory
// only tracking (tests).
func NewJobManager(dbClient *db.Client) *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
		db:   dbClient,
	}
}

// CreateJob creates a new pending job with persistence.
func (m *JobManager) CreateJob(ctx context.Context, seedURL string, searchTypes []string) (*Job, error) {
	job := &Job{
		ID:          uuid.New().String()[:8], // Short ID for convenience
		SeedURL:     seedURL,
		SearchTypes: searchTypes,
		Status:      JobStatusPending,
		StartedAt:   time.Now(),
	}

	if m.db != nil {
		if err := m.db.CreateCrawlJob(ctx, job.ID, seedURL); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	slog.Info("crawl job created", "job_id", job.ID, "seed", seedURL, "search_types", searchTypes)
	return job, nil
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all in-memory jobs, most recent first.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}

	slices.SortFunc(jobs, func(a, b *Job) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return jobs
}

// SetRunning marks the job as running in memory and in the DB.
func (m *JobManager) SetRunning(ctx context.Context, job *Job) {
	job.mu.Lock()
	job.Status = JobStatusRunning
	job.mu.Unlock()

	if m.db != nil {
		if err := m.db.UpdateCrawlJobStatus(ctx, job.ID, string(JobStatusRunning)); err != nil {
			slog.Warn("failed to set job running", "job_id", job.ID, "error", err)
		}
	}
}

// UpdateProgress updates job counters with debounced DB persistence.
func (m *JobManager) UpdateProgress(ctx context.Context, job *Job, visited, indexed, chunks int) {
	job.mu.Lock()
	job.Visited = visited
	job.Indexed = indexed
	job.Chunks = chunks
	if job.Status == JobStatusPending {
		job.Status = JobStatusRunning
	}

	// Debounce DB updates - only persist every 5 seconds or every 10 pages
	shouldPersist := m.db != nil && (time.Since(job.lastProgressUpdate) > 5*time.Second ||
		indexed%10 == 0)
	if shouldPersist {
		job.lastProgressUpdate = time.Now()
	}
	job.mu.Unlock()

	if shouldPersist {
		if err := m.db.UpdateCrawlJobProgress(ctx, job.ID, visited, indexed, chunks); err != nil {
			slog.Warn("failed to persist job progress", "job_id", job.ID, "error", err)
		}
	}
}

// Complete marks the job as completed with its report.
func (m *JobManager) Complete(ctx context.Context, job *Job, report *CrawlReport) {
	job.mu.Lock()
	job.Status = JobStatusCompleted
	job.Report = report
	job.Visited = report.PagesVisited
	job.Indexed = report.PagesIndexed
	job.Chunks = report.ChunksWritten
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	if m.db != nil {
		if err := m.db.CompleteCrawlJob(ctx, job.ID, report.PagesVisited, report.PagesIndexed, report.ChunksWritten); err != nil {
			slog.Warn("failed to persist job completion", "job_id", job.ID, "error", err)
		}
	}

	slog.Info("crawl job completed",
		"job_id", job.ID,
		"visited", report.PagesVisited,
		"indexed", report.PagesIndexed,
		"errors", len(report.Errors))
}

// Fail marks the job as failed with an error.
func (m *JobManager) Fail(ctx context.Context, job *Job, err error) {
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	if m.db != nil {
		if dbErr := m.db.FailCrawlJob(ctx, job.ID, err.Error()); dbErr != nil {
			slog.Warn("failed to persist job failure", "job_id", job.ID, "error", dbErr)
		}
	}

	slog.Error("crawl job failed", "job_id", job.ID, "error", err)
}

// Run executes the pipeline under job tracking, wiring progress updates
// through to persistence.
func (m *JobManager) Run(ctx context.Context, job *Job, pipeline *Pipeline, opts CrawlOptions) {
	m.SetRunning(ctx, job)

	report, err := pipeline.CrawlAndIndex(ctx, job.SeedURL, job.SearchTypes, opts, func(visited, indexed, chunks int) {
		m.UpdateProgress(ctx, job, visited, indexed, chunks)
	})
	if err != nil {
		m.Fail(ctx, job, err)
		return
	}
	m.Complete(ctx, job, report)
}
