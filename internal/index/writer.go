package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gmviana/studysearch-go/internal/metrics"
	"github.com/gmviana/studysearch-go/internal/models"
	"github.com/gmviana/studysearch-go/internal/vector"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
)

// Embedder turns chunk texts into embedding vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentMeta is the shared metadata applied to every chunk of one
// document.
type DocumentMeta struct {
	Namespace  string
	Category   string
	SourceURL  string
	Title      string
	SearchTags []string
	SourceHash string
	Extra      map[string]string
}

// Writer embeds chunks and upserts them into the vector store. Write
// failures are retried with exponential backoff before surfacing a
// terminal error; the crawl pipeline logs and skips, never aborts.
type Writer struct {
	store       vector.Store
	embedder    Embedder
	maxAttempts int
	backoff     BackoffFn
	sleep       func(time.Duration)
	collector   *metrics.Collector
	logger      *slog.Logger
}

// Option tweaks writer behavior, mainly for tests.
type Option func(*Writer)

// WithMaxAttempts overrides the retry bound.
func WithMaxAttempts(n int) Option {
	return func(w *Writer) { w.maxAttempts = n }
}

// WithBackoff overrides the backoff schedule.
func WithBackoff(fn BackoffFn) Option {
	return func(w *Writer) { w.backoff = fn }
}

// WithSleep overrides the sleep function so tests can record delays.
func WithSleep(fn func(time.Duration)) Option {
	return func(w *Writer) { w.sleep = fn }
}

// WithMetrics records embed and upsert timings in the collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Writer) { w.collector = c }
}

// NewWriter creates a writer with the default 3-attempt 2s/4s backoff.
func NewWriter(store vector.Store, embedder Embedder, logger *slog.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		store:       store,
		embedder:    embedder,
		maxAttempts: defaultMaxAttempts,
		backoff:     ExponentialBackoff(defaultBackoffBase),
		sleep:       time.Sleep,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Upsert embeds every chunk and writes one record per chunk under the
// deterministic id "<sourceID>-<chunkIndex>". Upserting the same chunks
// twice yields exactly one logical record per id. Returns the number of
// records written.
func (w *Writer) Upsert(ctx context.Context, sourceID string, chunks []models.Chunk, meta DocumentMeta) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embedStart := time.Now()
	embeddings, err := w.embedder.EmbedBatch(ctx, texts)
	if w.collector != nil {
		w.collector.RecordTiming(metrics.OpEmbed, time.Since(embedStart))
	}
	if err != nil {
		return 0, fmt.Errorf("embed chunks for %s: %w", sourceID, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embed chunks for %s: got %d embeddings, want %d", sourceID, len(embeddings), len(chunks))
	}

	records := make([]vector.Record, len(chunks))
	for i, chunk := range chunks {
		chunkMeta := vector.Metadata{
			Namespace:  meta.Namespace,
			Category:   meta.Category,
			SourceURL:  meta.SourceURL,
			Title:      meta.Title,
			SearchTags: meta.SearchTags,
			ChunkIndex: chunk.Index,
			IndexedAt:  time.Now(),
			SourceHash: meta.SourceHash,
			Extra:      meta.Extra,
		}
		if chunk.Hints != nil && chunk.Hints.Title != "" {
			chunkMeta.Title = fmt.Sprintf("%s | %s", meta.Title, chunk.Hints.Title)
		}
		records[i] = vector.Record{
			ID:        fmt.Sprintf("%s-%d", sourceID, chunk.Index),
			Embedding: embeddings[i],
			Text:      chunk.Text,
			Metadata:  chunkMeta,
		}
	}

	err = withRetry(ctx, w.maxAttempts, w.backoff, w.sleep, func() error {
		upsertStart := time.Now()
		err := w.store.Upsert(ctx, records)
		if w.collector != nil {
			w.collector.RecordTiming(metrics.OpUpsert, time.Since(upsertStart))
		}
		if err != nil {
			w.logger.Warn("vector upsert failed, retrying",
				"source", sourceID, "records", len(records), "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %d records for %s: %w", len(records), sourceID, err)
	}

	w.logger.Debug("chunks indexed", "source", sourceID, "records", len(records), "namespace", meta.Namespace)
	return len(records), nil
}

// DeleteByFilter removes indexed vectors matching the filter, with the
// same retry policy as writes.
func (w *Writer) DeleteByFilter(ctx context.Context, filter vector.Filter) error {
	err := withRetry(ctx, w.maxAttempts, w.backoff, w.sleep, func() error {
		return w.store.DeleteByFilter(ctx, filter)
	})
	if err != nil {
		return fmt.Errorf("delete by filter %s: %w", filter.Namespace, err)
	}
	return nil
}
