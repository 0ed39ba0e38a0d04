package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gmviana/studysearch-go/internal/chunker"
	"github.com/gmviana/studysearch-go/internal/crawler"
	"github.com/gmviana/studysearch-go/internal/index"
	"github.com/gmviana/studysearch-go/internal/models"
	"github.com/gmviana/studysearch-go/internal/vector"
)

// fakeExtractor serves canned pages keyed by URL.
type fakeExtractor struct {
	mu    sync.Mutex
	pages map[string]models.ExtractedPage
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) models.ExtractedPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page, ok := f.pages[pageURL]; ok {
		return page
	}
	return models.ExtractedPage{URL: pageURL, Title: "[unavailable] " + pageURL}
}

// fakeVectorStore records upserts and can fail for one source URL.
type fakeVectorStore struct {
	mu      sync.Mutex
	records map[string]vector.Record
	failURL string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{records: make(map[string]vector.Record)}
}

func (f *fakeVectorStore) Upsert(_ context.Context, records []vector.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failURL != "" && len(records) > 0 && records[0].Metadata.SourceURL == f.failURL {
		return errors.New("store rejected batch")
	}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeVectorStore) Query(context.Context, []float32, int, vector.Filter) ([]vector.Match, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteByFilter(context.Context, vector.Filter) error { return nil }

type fakeBatchEmbedder struct{}

func (fakeBatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

// fakeHashChecker reports the given hashes as already indexed.
type fakeHashChecker struct {
	known map[string]bool
	calls int
}

func (f *fakeHashChecker) HasSourceHash(_ context.Context, _, hash string) (bool, error) {
	f.calls++
	return f.known[hash], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestPipeline(extractor *fakeExtractor, store *fakeVectorStore, dedup HashChecker) *Pipeline {
	c := crawler.New(extractor, "test-agent", 5*time.Second, nil)
	w := index.NewWriter(store, fakeBatchEmbedder{}, testLogger(), index.WithSleep(func(time.Duration) {}))
	return NewPipeline(c, w, dedup, testLogger())
}

func TestCrawlAndIndexHappyPath(t *testing.T) {
	server := okServer(t)
	seed := server.URL + "/start"
	child := server.URL + "/child"

	extractor := &fakeExtractor{pages: map[string]models.ExtractedPage{
		seed:  {URL: seed, Title: "Start", Content: "start page content words", OutboundLinks: []string{child}},
		child: {URL: child, Title: "Child", Content: "child page content words"},
	}}
	store := newFakeVectorStore()
	p := newTestPipeline(extractor, store, nil)

	var progressCalls int
	report, err := p.CrawlAndIndex(context.Background(), seed, []string{"public-exams"},
		CrawlOptions{MaxPages: 10, MaxDepth: 1},
		func(visited, indexed, chunks int) { progressCalls++ })
	if err != nil {
		t.Fatalf("CrawlAndIndex returned error: %v", err)
	}

	if report.PagesIndexed != 2 {
		t.Errorf("indexed %d pages, want 2", report.PagesIndexed)
	}
	if report.ChunksWritten != 2 {
		t.Errorf("wrote %d chunks, want 2", report.ChunksWritten)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	if progressCalls != 2 {
		t.Errorf("progress called %d times, want 2", progressCalls)
	}

	for _, record := range store.records {
		if record.Metadata.Namespace != vector.NamespaceCrawled {
			t.Errorf("record %s in namespace %q", record.ID, record.Metadata.Namespace)
		}
		if record.Metadata.Category != "public-exams" {
			t.Errorf("record %s category %q", record.ID, record.Metadata.Category)
		}
		if record.Metadata.SourceHash == "" {
			t.Errorf("record %s missing source hash", record.ID)
		}
	}
}

func TestCrawlAndIndexSkipsUnchangedContent(t *testing.T) {
	server := okServer(t)
	seed := server.URL + "/doc"
	content := "already indexed document content"

	extractor := &fakeExtractor{pages: map[string]models.ExtractedPage{
		seed: {URL: seed, Title: "Doc", Content: content},
	}}
	store := newFakeVectorStore()
	dedup := &fakeHashChecker{known: map[string]bool{contentHash(content): true}}
	p := newTestPipeline(extractor, store, dedup)

	report, err := p.CrawlAndIndex(context.Background(), seed, nil, CrawlOptions{MaxPages: 5, MaxDepth: 0}, nil)
	if err != nil {
		t.Fatalf("CrawlAndIndex returned error: %v", err)
	}

	if report.PagesSkipped != 1 {
		t.Errorf("skipped %d pages, want 1", report.PagesSkipped)
	}
	if report.PagesIndexed != 0 {
		t.Errorf("indexed %d pages, want 0", report.PagesIndexed)
	}
	if len(store.records) != 0 {
		t.Errorf("store holds %d records, want 0", len(store.records))
	}
	if dedup.calls != 1 {
		t.Errorf("dedup checked %d times, want 1", dedup.calls)
	}
}

func TestCrawlAndIndexPageFailureIsNonFatal(t *testing.T) {
	server := okServer(t)
	seed := server.URL + "/a"
	bad := server.URL + "/b"

	extractor := &fakeExtractor{pages: map[string]models.ExtractedPage{
		seed: {URL: seed, Title: "A", Content: "good page content", OutboundLinks: []string{bad}},
		bad:  {URL: bad, Title: "B", Content: "page the store rejects"},
	}}
	store := newFakeVectorStore()
	store.failURL = bad
	p := newTestPipeline(extractor, store, nil)

	report, err := p.CrawlAndIndex(context.Background(), seed, nil, CrawlOptions{MaxPages: 5, MaxDepth: 1}, nil)
	if err != nil {
		t.Fatalf("CrawlAndIndex returned error: %v", err)
	}

	if report.PagesIndexed != 1 {
		t.Errorf("indexed %d pages, want 1", report.PagesIndexed)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], bad) {
		t.Errorf("errors = %v, want one naming the failed page", report.Errors)
	}
}

func TestCrawlAndIndexRejectsInvalidSeed(t *testing.T) {
	p := newTestPipeline(&fakeExtractor{}, newFakeVectorStore(), nil)

	if _, err := p.CrawlAndIndex(context.Background(), "not-a-url", nil, CrawlOptions{MaxPages: 5}, nil); err == nil {
		t.Fatal("expected invalid seed error")
	}
}

func TestCrawlAndIndexDefaultsCategory(t *testing.T) {
	server := okServer(t)
	seed := server.URL + "/page"

	extractor := &fakeExtractor{pages: map[string]models.ExtractedPage{
		seed: {URL: seed, Title: "Page", Content: "page content here"},
	}}
	store := newFakeVectorStore()
	p := newTestPipeline(extractor, store, nil)

	if _, err := p.CrawlAndIndex(context.Background(), seed, nil, CrawlOptions{MaxPages: 1, MaxDepth: 0}, nil); err != nil {
		t.Fatalf("CrawlAndIndex returned error: %v", err)
	}
	for _, record := range store.records {
		if record.Metadata.Category != "study-material" {
			t.Errorf("record category %q, want default", record.Metadata.Category)
		}
	}
}

func TestChunkMode(t *testing.T) {
	if got := chunkMode("short page"); got != chunker.ModeFixedWindow {
		t.Errorf("short content mode = %v, want fixed window", got)
	}
	if got := chunkMode(strings.Repeat("x", titleAwareThreshold)); got != chunker.ModeTitleAware {
		t.Errorf("long content mode = %v, want title aware", got)
	}
}

func TestSourceIDStableAcrossVariants(t *testing.T) {
	a := sourceID("https://www.example.org/page#section")
	b := sourceID("https://example.org/page")
	if a != b {
		t.Errorf("source ids differ for normalized-equal URLs: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("source id length = %d, want 16", len(a))
	}
}
