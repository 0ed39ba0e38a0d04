package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gmviana/studysearch-go/internal/metrics"
	"github.com/gmviana/studysearch-go/internal/models"
	"github.com/gmviana/studysearch-go/internal/vector"
)

const (
	// defaultSimilarityFloor is the minimum cosine similarity for a match
	// to be considered relevant.
	defaultSimilarityFloor = 0.5

	// disambiguationGap and confidentScore drive the curated-source
	// disambiguation policy: a top-two gap below the former, or a top
	// score below the latter, returns alternatives instead of one pick.
	disambiguationGap = 0.1
	confidentScore    = 0.8

	defaultMaxResults = 10
)

// ErrNoActiveSites is returned by crawled-only searches when no active
// site enables the requested search types.
var ErrNoActiveSites = errors.New("no active sites for requested search types")

// Embedder turns the query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SiteDirectory exposes the site-configuration rows the aggregator needs.
type SiteDirectory interface {
	ActiveSitesForSearchTypes(ctx context.Context, types []string) ([]models.SiteConfig, error)
}

// Options scopes one search.
type Options struct {
	// SearchTypes overrides keyword-based category inference.
	SearchTypes []string

	// IncludeCrawledSites adds the crawled-content index as a second
	// source.
	IncludeCrawledSites bool

	MaxResults int
}

// Response is the merged search outcome.
type Response struct {
	Results   []models.SearchResult
	Breakdown models.SourceBreakdown

	// Alternatives is non-empty when the curated source produced near-tied
	// candidates that need user selection instead of an auto-pick.
	Alternatives []models.SearchResult
}

// Aggregator fans a query out to the curated and crawled indexes and
// merges the results. Sub-query failures are isolated: one source failing
// yields zero results for that source, never an error for the search.
type Aggregator struct {
	store     vector.Store
	embedder  Embedder
	sites     SiteDirectory
	floor     float64
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewAggregator creates an aggregator with the default similarity floor.
func NewAggregator(store vector.Store, embedder Embedder, sites SiteDirectory, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:    store,
		embedder: embedder,
		sites:    sites,
		floor:    defaultSimilarityFloor,
		logger:   logger,
	}
}

// SetMetrics records search timings in the collector.
func (a *Aggregator) SetMetrics(c *metrics.Collector) {
	a.collector = c
}

// Integrated searches the curated index and, when enabled, the crawled
// index restricted to sites whose configuration enables a matching
// category. Each source contributes at most half of MaxResults.
func (a *Aggregator) Integrated(ctx context.Context, query string, opts Options) (*Response, error) {
	if a.collector != nil {
		defer func(start time.Time) {
			a.collector.RecordTiming(metrics.OpSearch, time.Since(start))
		}(time.Now())
	}

	categories := opts.SearchTypes
	if len(categories) == 0 {
		categories = InferCategories(query)
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		a.logger.Warn("query embedding failed", "query", query, "error", err)
		return &Response{Results: []models.SearchResult{}}, nil
	}

	perSource := maxResults / 2
	if perSource < 1 {
		perSource = 1
	}

	var wg sync.WaitGroup
	var curated, crawled []models.SearchResult

	wg.Add(1)
	go func() {
		defer wg.Done()
		curated = a.querySource(ctx, embedding, vector.NamespaceCurated, categories, maxResults, models.OriginCurated)
	}()

	if opts.IncludeCrawledSites {
		wg.Add(1)
		go func() {
			defer wg.Done()
			crawled = a.queryCrawled(ctx, embedding, categories, maxResults)
		}()
	}
	wg.Wait()

	response := &Response{}

	// Curated disambiguation runs on the untruncated candidate set.
	if alt := a.disambiguate(curated); alt != nil {
		response.Alternatives = alt
	}

	curated = truncate(curated, perSource)
	crawled = truncate(crawled, perSource)

	merged := make([]models.SearchResult, 0, len(curated)+len(crawled))
	merged = append(merged, curated...)
	merged = append(merged, crawled...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})

	response.Results = merged
	response.Breakdown = models.SourceBreakdown{Curated: len(curated), Crawled: len(crawled)}

	a.logger.Debug("search merged",
		"query", query,
		"categories", categories,
		"curated", len(curated),
		"crawled", len(crawled),
		"alternatives", len(response.Alternatives))
	return response, nil
}

// CrawledOnly searches the crawled-content index alone. Unlike the
// integrated search, having no active site for the requested types is a
// rejected operation, not an empty result.
func (a *Aggregator) CrawledOnly(ctx context.Context, query string, searchTypes []string, maxResults int) ([]models.SearchResult, error) {
	if len(searchTypes) == 0 {
		searchTypes = InferCategories(query)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	sites, err := a.sites.ActiveSitesForSearchTypes(ctx, searchTypes)
	if err != nil {
		return nil, fmt.Errorf("load site configuration: %w", err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoActiveSites, searchTypes)
	}

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := a.querySource(ctx, embedding, vector.NamespaceCrawled, searchTypes, maxResults, models.OriginCrawled)
	results = filterBySites(results, sites)
	return truncate(results, maxResults), nil
}

// querySource runs one namespace query. Failures degrade to zero results.
func (a *Aggregator) querySource(ctx context.Context, embedding []float32, namespace string, categories []string, topK int, origin models.OriginTag) []models.SearchResult {
	matches, err := a.store.Query(ctx, embedding, topK, vector.Filter{
		Namespace:  namespace,
		Categories: categories,
	})
	if err != nil {
		a.logger.Warn("sub-query failed", "namespace", namespace, "error", err)
		return nil
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match.Similarity < a.floor || isResidualPlaceholder(match.Text) {
			continue
		}
		results = append(results, models.SearchResult{
			ID:         match.ID,
			Title:      match.Metadata.Title,
			Content:    match.Text,
			SourceURL:  match.Metadata.SourceURL,
			Similarity: match.Similarity,
			Origin:     origin,
		})
	}
	return results
}

// queryCrawled queries the crawled namespace restricted to sites enabling
// a matching category. Site-configuration failures degrade to zero.
func (a *Aggregator) queryCrawled(ctx context.Context, embedding []float32, categories []string, topK int) []models.SearchResult {
	sites, err := a.sites.ActiveSitesForSearchTypes(ctx, categories)
	if err != nil {
		a.logger.Warn("site configuration unavailable", "error", err)
		return nil
	}
	if len(sites) == 0 {
		return nil
	}

	results := a.querySource(ctx, embedding, vector.NamespaceCrawled, categories, topK, models.OriginCrawled)
	return filterBySites(results, sites)
}

// disambiguate applies the curated-source policy: with multiple candidates
// above the floor, a small top-two gap or a moderate top score returns the
// full candidate set for user selection.
func (a *Aggregator) disambiguate(curated []models.SearchResult) []models.SearchResult {
	if len(curated) < 2 {
		return nil
	}
	sorted := make([]models.SearchResult, len(curated))
	copy(sorted, curated)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	top, second := sorted[0].Similarity, sorted[1].Similarity
	if top-second < disambiguationGap || top < confidentScore {
		return sorted
	}
	return nil
}

// filterBySites keeps results whose source URL belongs to one of the
// configured site hosts.
func filterBySites(results []models.SearchResult, sites []models.SiteConfig) []models.SearchResult {
	hosts := make(map[string]bool, len(sites))
	for _, site := range sites {
		if u, err := url.Parse(site.URL); err == nil && u.Host != "" {
			hosts[strings.TrimPrefix(strings.ToLower(u.Host), "www.")] = true
		}
	}

	filtered := results[:0]
	for _, result := range results {
		u, err := url.Parse(result.SourceURL)
		if err != nil {
			continue
		}
		if hosts[strings.TrimPrefix(strings.ToLower(u.Host), "www.")] {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// isResidualPlaceholder catches placeholder chunks that slipped past
// extraction filtering.
func isResidualPlaceholder(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if len(trimmed) > 300 {
		return false
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "enable javascript") ||
		strings.Contains(lower, "javascript is required")
}

func truncate(results []models.SearchResult, max int) []models.SearchResult {
	if len(results) <= max {
		return results
	}
	return results[:max]
}
