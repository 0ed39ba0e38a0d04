// Package service wires the crawl, chunk and index stages into the
// operations exposed to the CLI.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/gmviana/studysearch-go/internal/chunker"
	"github.com/gmviana/studysearch-go/internal/crawler"
	"github.com/gmviana/studysearch-go/internal/index"
	"github.com/gmviana/studysearch-go/internal/search"
	"github.com/gmviana/studysearch-go/internal/vector"
)

// titleAwareThreshold selects title-aware chunking for long documents;
// anything shorter gets fixed windows.
const titleAwareThreshold = 5000

// HashChecker answers whether content with this hash is already indexed.
type HashChecker interface {
	HasSourceHash(ctx context.Context, namespace, hash string) (bool, error)
}

// CrawlOptions bounds one pipeline run.
type CrawlOptions struct {
	MaxPages int
	MaxDepth int
	Delay    time.Duration
}

// CrawlReport summarizes one finished pipeline run. Per-page errors are
// collected, never fatal.
type CrawlReport struct {
	PagesVisited  int
	PagesIndexed  int
	PagesSkipped  int // unchanged content, deduplicated by hash
	ChunksWritten int
	Errors        []string
}

// Progress receives live counters while a run is in flight.
type Progress func(visited, indexed, chunks int)

// Pipeline drives seed URL -> crawl -> chunk -> index.
type Pipeline struct {
	crawler *crawler.Crawler
	writer  *index.Writer
	dedup   HashChecker
	logger  *slog.Logger
}

// NewPipeline assembles a pipeline. dedup may be nil to disable
// unchanged-content skipping.
func NewPipeline(c *crawler.Crawler, w *index.Writer, dedup HashChecker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{crawler: c, writer: w, dedup: dedup, logger: logger}
}

// CrawlAndIndex crawls from seedURL and indexes every extracted page under
// the crawled namespace. Invalid seeds are rejected immediately; per-page
// chunking or indexing failures are logged, recorded in the report and
// skipped.
func (p *Pipeline) CrawlAndIndex(ctx context.Context, seedURL string, searchTypes []string, opts CrawlOptions, progress Progress) (*CrawlReport, error) {
	category := search.DefaultCategory
	if len(searchTypes) > 0 {
		category = searchTypes[0]
	}

	pages, stats, err := p.crawler.Crawl(ctx, seedURL, crawler.Options{
		MaxPages: opts.MaxPages,
		MaxDepth: opts.MaxDepth,
		Delay:    opts.Delay,
	})
	if err != nil {
		return nil, err
	}

	report := &CrawlReport{PagesVisited: stats.Visited}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		hash := contentHash(page.Content)
		if p.dedup != nil {
			indexed, err := p.dedup.HasSourceHash(ctx, vector.NamespaceCrawled, hash)
			if err != nil {
				p.logger.Warn("dedup check failed", "url", page.URL, "error", err)
			} else if indexed {
				report.PagesSkipped++
				p.logger.Debug("content unchanged, skipping", "url", page.URL)
				continue
			}
		}

		chunks := chunker.Chunk(sourceID(page.URL), page.Content, chunkMode(page.Content), chunker.Config{})
		if len(chunks) == 0 {
			continue
		}

		written, err := p.writer.Upsert(ctx, sourceID(page.URL), chunks, index.DocumentMeta{
			Namespace:  vector.NamespaceCrawled,
			Category:   category,
			SourceURL:  page.URL,
			Title:      page.Title,
			SearchTags: searchTypes,
			SourceHash: hash,
			Extra:      page.Extra,
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", page.URL, err))
			p.logger.Error("page indexing failed, continuing", "url", page.URL, "error", err)
			continue
		}

		report.PagesIndexed++
		report.ChunksWritten += written
		if progress != nil {
			progress(report.PagesVisited, report.PagesIndexed, report.ChunksWritten)
		}
	}

	p.logger.Info("crawl and index finished",
		"seed", seedURL,
		"visited", report.PagesVisited,
		"indexed", report.PagesIndexed,
		"skipped", report.PagesSkipped,
		"chunks", report.ChunksWritten,
		"errors", len(report.Errors))
	return report, nil
}

// chunkMode picks title-aware chunking for long documents likely to carry
// heading structure (regulatory texts, exam notices).
func chunkMode(content string) chunker.Mode {
	if len(content) >= titleAwareThreshold {
		return chunker.ModeTitleAware
	}
	return chunker.ModeFixedWindow
}

// sourceID derives the stable per-document id chunk record ids build on.
func sourceID(pageURL string) string {
	sum := sha256.Sum256([]byte(crawler.NormalizeURL(pageURL)))
	return hex.EncodeToString(sum[:])[:16]
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
