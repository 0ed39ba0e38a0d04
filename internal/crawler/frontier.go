// Package crawler implements a bounded breadth-first frontier crawl over a
// single site.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/gmviana/studysearch-go/internal/models"
)

// ErrInvalidSeed is returned when pre-flight validation of the seed URL
// fails. It is the only hard failure a crawl run can raise; everything
// else degrades to fewer results.
var ErrInvalidSeed = errors.New("invalid seed URL")

// Extractor produces a normalized page for a URL. Implementations never
// return an error; failed extraction yields a page with empty content.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) models.ExtractedPage
}

// Options bounds a single crawl run.
type Options struct {
	MaxPages int
	MaxDepth int

	// Delay is the fixed pause between extractions, pacing requests so a
	// single host is never hammered.
	Delay time.Duration
}

// Stats summarizes a finished crawl run.
type Stats struct {
	Visited int // URLs popped and processed, including contentless ones
	Empty   int // pages whose extraction produced no usable text
	Skipped int // links rejected by origin, extension or robots filters
}

// Crawler walks one site at a time. Each Crawl call owns its frontier and
// visited set, so concurrent runs over different sites never share state.
type Crawler struct {
	extractor Extractor
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// New creates a crawler. The client is used for seed pre-flight checks and
// robots.txt retrieval only; page fetching belongs to the extractor.
func New(extractor Extractor, userAgent string, timeout time.Duration, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		extractor: extractor,
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Crawl traverses the site breadth-first from seed, bounded by opts.
// Contentless pages are recorded as visited but excluded from the result;
// per-page failures never abort the run.
func (c *Crawler) Crawl(ctx context.Context, seed string, opts Options) ([]models.ExtractedPage, *Stats, error) {
	if !IsValidURL(seed) {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidSeed, seed)
	}
	if err := c.preflight(ctx, seed); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	robots := c.fetchRobots(ctx, seed)

	stats := &Stats{}
	visited := make(map[string]bool)
	queued := map[string]bool{NormalizeURL(seed): true}
	frontier := []models.CrawlTask{{URL: seed, Depth: 0}}
	var results []models.ExtractedPage

	for len(frontier) > 0 && len(results) < opts.MaxPages {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}

		task := frontier[0]
		frontier = frontier[1:]

		norm := NormalizeURL(task.URL)
		if visited[norm] || task.Depth > opts.MaxDepth {
			continue
		}
		visited[norm] = true

		if stats.Visited > 0 && opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return results, stats, ctx.Err()
			}
		}
		stats.Visited++

		page := c.extractor.Extract(ctx, task.URL)
		if page.HasContent() {
			results = append(results, page)
		} else {
			stats.Empty++
			c.logger.Debug("page yielded no content", "url", task.URL, "depth", task.Depth)
		}

		if task.Depth >= opts.MaxDepth {
			continue
		}
		for _, link := range page.OutboundLinks {
			if !c.followable(seed, link, robots) {
				stats.Skipped++
				continue
			}
			linkNorm := NormalizeURL(link)
			if visited[linkNorm] || queued[linkNorm] {
				continue
			}
			queued[linkNorm] = true
			frontier = append(frontier, models.CrawlTask{URL: link, Depth: task.Depth + 1})
		}
	}

	c.logger.Info("crawl finished",
		"seed", seed,
		"visited", stats.Visited,
		"returned", len(results),
		"empty", stats.Empty)
	return results, stats, nil
}

// followable applies the frontier's link filters: URL validity, same
// origin, forbidden extensions, robots.txt.
func (c *Crawler) followable(seed, link string, robots *robotstxt.Group) bool {
	if !IsValidURL(link) || !SameOrigin(seed, link) || HasForbiddenExtension(link) {
		return false
	}
	if robots != nil {
		if u, err := url.Parse(link); err == nil && !robots.Test(u.Path) {
			return false
		}
	}
	return true
}

// preflight verifies the seed is reachable. HEAD is tried first; servers
// that reject HEAD get a GET instead.
func (c *Crawler) preflight(ctx context.Context, seed string) error {
	status, err := c.probe(ctx, http.MethodHead, seed)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = c.probe(ctx, http.MethodGet, seed)
	}
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("seed returned HTTP %d", status)
	}
	return nil
}

func (c *Crawler) probe(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// fetchRobots loads the site's robots.txt group for our user agent.
// Best-effort: any failure means no robots restrictions are applied.
func (c *Crawler) fetchRobots(ctx context.Context, seed string) *robotstxt.Group {
	u, err := url.Parse(seed)
	if err != nil {
		return nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt not fetched", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.logger.Debug("robots.txt not parsed", "url", robotsURL, "error", err)
		return nil
	}
	return data.FindGroup(c.userAgent)
}
