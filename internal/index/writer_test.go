package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gmviana/studysearch-go/internal/models"
	"github.com/gmviana/studysearch-go/internal/vector"
)

// fakeStore keeps records by id and can fail the first N upserts.
type fakeStore struct {
	records     map[string]vector.Record
	failUpserts int
	upsertCalls int
	deleted     []vector.Filter
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]vector.Record)}
}

func (f *fakeStore) Upsert(_ context.Context, records []vector.Record) error {
	f.upsertCalls++
	if f.failUpserts > 0 {
		f.failUpserts--
		return errors.New("store unavailable")
	}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeStore) Query(context.Context, []float32, int, vector.Filter) ([]vector.Match, error) {
	return nil, nil
}

func (f *fakeStore) DeleteByFilter(_ context.Context, filter vector.Filter) error {
	f.deleted = append(f.deleted, filter)
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChunks() []models.Chunk {
	return []models.Chunk{
		{SourceID: "abc123", Index: 0, Text: "first chunk text"},
		{SourceID: "abc123", Index: 1, Text: "second chunk text"},
	}
}

func TestUpsertWritesDeterministicIDs(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, &fakeEmbedder{}, testLogger())

	meta := DocumentMeta{Namespace: vector.NamespaceCrawled, Category: "study-material", SourceURL: "https://example.org/doc"}
	n, err := w.Upsert(context.Background(), "abc123", testChunks(), meta)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d records, want 2", n)
	}

	for _, id := range []string{"abc123-0", "abc123-1"} {
		if _, ok := store.records[id]; !ok {
			t.Errorf("missing record %q", id)
		}
	}

	// A second pass over the same chunks overwrites in place.
	if _, err := w.Upsert(context.Background(), "abc123", testChunks(), meta); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}
	if len(store.records) != 2 {
		t.Errorf("store holds %d records after re-upsert, want 2", len(store.records))
	}
}

func TestUpsertComposesHintTitles(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, &fakeEmbedder{}, testLogger())

	chunks := []models.Chunk{
		{Index: 0, Text: "preamble"},
		{Index: 1, Text: "section body", Hints: &models.StructureHints{Title: "Capítulo I", Level: 1}},
	}
	meta := DocumentMeta{Namespace: vector.NamespaceCrawled, Title: "Exam Notice"}

	if _, err := w.Upsert(context.Background(), "doc", chunks, meta); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if got := store.records["doc-0"].Metadata.Title; got != "Exam Notice" {
		t.Errorf("plain chunk title = %q, want document title", got)
	}
	if got := store.records["doc-1"].Metadata.Title; got != "Exam Notice | Capítulo I" {
		t.Errorf("hinted chunk title = %q, want composed title", got)
	}
}

func TestUpsertRetriesTransientFailures(t *testing.T) {
	store := newFakeStore()
	store.failUpserts = 2

	var slept []time.Duration
	w := NewWriter(store, &fakeEmbedder{}, testLogger(),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }))

	n, err := w.Upsert(context.Background(), "abc123", testChunks(), DocumentMeta{Namespace: vector.NamespaceCrawled})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d records, want 2", n)
	}
	if store.upsertCalls != 3 {
		t.Errorf("store called %d times, want 3", store.upsertCalls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Errorf("backoff delays = %v, want %v", slept, want)
	}
}

func TestUpsertSurfacesTerminalFailure(t *testing.T) {
	store := newFakeStore()
	store.failUpserts = 10

	w := NewWriter(store, &fakeEmbedder{}, testLogger(), WithSleep(noSleep))

	n, err := w.Upsert(context.Background(), "abc123", testChunks(), DocumentMeta{Namespace: vector.NamespaceCrawled})
	if err == nil {
		t.Fatal("expected terminal error after exhausted retries")
	}
	if n != 0 {
		t.Errorf("reported %d records written on failure, want 0", n)
	}
	if store.upsertCalls != 3 {
		t.Errorf("store called %d times, want 3", store.upsertCalls)
	}
	if !strings.Contains(err.Error(), "abc123") {
		t.Errorf("error %q should name the source", err)
	}
}

func TestUpsertEmbedFailureSkipsStore(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, &fakeEmbedder{err: errors.New("model offline")}, testLogger())

	if _, err := w.Upsert(context.Background(), "abc123", testChunks(), DocumentMeta{}); err == nil {
		t.Fatal("expected embed error")
	}
	if store.upsertCalls != 0 {
		t.Errorf("store called %d times after embed failure, want 0", store.upsertCalls)
	}
}

func TestUpsertEmptyChunks(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	w := NewWriter(store, embedder, testLogger())

	n, err := w.Upsert(context.Background(), "abc123", nil, DocumentMeta{})
	if err != nil || n != 0 {
		t.Fatalf("Upsert(nil) = (%d, %v), want (0, nil)", n, err)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called for empty input")
	}
}

func TestDeleteByFilter(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, &fakeEmbedder{}, testLogger())

	filter := vector.Filter{Namespace: vector.NamespaceCrawled, Categories: []string{"job-listings"}}
	if err := w.DeleteByFilter(context.Background(), filter); err != nil {
		t.Fatalf("DeleteByFilter returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0].Namespace != vector.NamespaceCrawled {
		t.Errorf("delete filters = %+v", store.deleted)
	}
}
