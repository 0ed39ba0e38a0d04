// Package vector defines the vector index collaborator interface consumed
// by the index writer and the search aggregator.
package vector

import (
	"context"
	"time"
)

// Namespaces partitioning the index by data source.
const (
	NamespaceCurated = "curated"
	NamespaceCrawled = "crawled"
)

// Metadata is the document metadata stored alongside each vector.
type Metadata struct {
	Namespace  string
	Category   string
	SourceURL  string
	Title      string
	SearchTags []string
	ChunkIndex int
	IndexedAt  time.Time

	// SourceHash is the content hash of the originating page, used to
	// skip re-embedding unchanged content on recrawl.
	SourceHash string

	// Extra holds open domain-specific fields (vacancy counts, salary)
	// so core logic never depends on untyped lookups.
	Extra map[string]string
}

// Record is one indexed vector. Records are immutable once written except
// for full re-upsert under the same id.
type Record struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  Metadata
}

// Match is one similarity query hit.
type Match struct {
	ID         string
	Similarity float64
	Text       string
	Metadata   Metadata
}

// Filter scopes queries and deletes to a namespace and optionally to one
// or more categories.
type Filter struct {
	Namespace  string
	Categories []string
}

// Store is the vector index service. Upserting the same id overwrites;
// the pipeline relies on that idempotency instead of client-side locking.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, embedding []float32, topK int, filter Filter) ([]Match, error)
	DeleteByFilter(ctx context.Context, filter Filter) error
}
