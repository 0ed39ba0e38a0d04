// Package extract retrieves raw markup for a URL and produces a normalized
// (title, text, outbound links) triple through a tiered fallback strategy:
// static fetch with DOM extraction, site-family pattern extraction, and a
// headless-render fallback for script-dependent pages.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gmviana/studysearch-go/internal/metrics"
	"github.com/gmviana/studysearch-go/internal/models"
)

// minSufficientChars is the content length below which a page is treated
// as "suspiciously short" and escalated to the next tier.
const minSufficientChars = 50

// ErrNotApplicable signals that a strategy doesn't handle this URL and
// the orchestrator should move on without logging a failure.
var ErrNotApplicable = errors.New("strategy not applicable")

// Strategy is one extraction tier. A nil page or an error means the tier
// produced nothing; an insufficient page lets the next tier try while its
// links and title are retained as a fallback.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pageURL string) (*models.ExtractedPage, error)
}

// Config configures the tiered extractor.
type Config struct {
	UserAgent     string
	FetchTimeout  time.Duration
	RenderTimeout time.Duration

	// EnableHeadless controls whether the tier-3 renderer is wired in.
	EnableHeadless bool

	// Renderer overrides the default rod-based renderer (tests).
	Renderer Renderer

	// Metrics records per-tier timings when set.
	Metrics *metrics.Collector

	Logger *slog.Logger
}

// Extractor iterates strategies in order until one produces sufficient
// content.
type Extractor struct {
	strategies []Strategy
	closers    []func()
	collector  *metrics.Collector
	logger     *slog.Logger
}

// New builds the standard three-tier extractor.
func New(cfg Config) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 12 * time.Second
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}

	fetcher := newFetcher(cfg.UserAgent, cfg.FetchTimeout)

	e := &Extractor{collector: cfg.Metrics, logger: cfg.Logger}
	e.strategies = append(e.strategies,
		&staticStrategy{fetcher: fetcher},
		&sitePatternStrategy{fetcher: fetcher},
	)

	if cfg.EnableHeadless || cfg.Renderer != nil {
		renderer := cfg.Renderer
		if renderer == nil {
			rr := newRodRenderer(cfg.RenderTimeout)
			renderer = rr
			e.closers = append(e.closers, rr.Close)
		}
		e.strategies = append(e.strategies, &headlessStrategy{renderer: renderer})
	}

	return e
}

// Extract runs the tiers for one URL. It never returns an error: network
// or parse failures at every tier yield a page with empty content and an
// error-annotated title, which the crawler treats as "no content".
func (e *Extractor) Extract(ctx context.Context, pageURL string) models.ExtractedPage {
	best := models.ExtractedPage{URL: pageURL, Title: errorTitle(pageURL), Content: ""}

	for _, strategy := range e.strategies {
		start := time.Now()
		page, err := strategy.Extract(ctx, pageURL)
		if e.collector != nil {
			op := metrics.OpFetch
			if strategy.Name() == "headless" {
				op = metrics.OpRender
			}
			e.collector.RecordTiming(op, time.Since(start))
		}
		if err != nil {
			if !errors.Is(err, ErrNotApplicable) {
				e.logger.Debug("extraction tier failed",
					"tier", strategy.Name(), "url", pageURL, "error", err)
			}
			continue
		}
		if page == nil {
			continue
		}

		if Sufficient(page.Content) {
			e.logger.Debug("content extracted",
				"tier", strategy.Name(), "url", pageURL, "chars", len(page.Content))
			return *page
		}

		// Keep the richest partial result: its title and links are still
		// useful to the frontier even when the text is dropped.
		if len(page.Content) > len(best.Content) || len(page.OutboundLinks) > len(best.OutboundLinks) {
			best = *page
		}
	}

	// Insufficient or placeholder text is never surfaced as content.
	best.Content = ""
	return best
}

// Close releases resources held by the tiers (headless browser).
func (e *Extractor) Close() {
	for _, closeFn := range e.closers {
		closeFn()
	}
}

// Sufficient is the tier-escalation predicate: content must be long
// enough and must not be a "requires scripting" placeholder.
func Sufficient(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minSufficientChars {
		return false
	}
	return !isScriptingPlaceholder(trimmed)
}

var scriptingPlaceholders = []string{
	"enable javascript",
	"requires javascript",
	"javascript is required",
	"javascript is disabled",
	"turn on javascript",
	"you need to enable javascript",
}

// isScriptingPlaceholder detects pages whose visible text is only a
// scripting notice.
func isScriptingPlaceholder(content string) bool {
	if len(content) > 300 {
		return false
	}
	lower := strings.ToLower(content)
	for _, marker := range scriptingPlaceholders {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
