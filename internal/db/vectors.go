package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/gmviana/studysearch-go/internal/vector"
)

// chunkVectorRow is the persisted shape of one indexed chunk.
type chunkVectorRow struct {
	ID         *surrealmodels.RecordID `json:"id,omitempty"`
	Namespace  string                  `json:"namespace"`
	Category   string                  `json:"category"`
	SourceURL  string                  `json:"source_url"`
	Title      string                  `json:"title"`
	SearchTags []string                `json:"search_tags"`
	ChunkIndex int                     `json:"chunk_index"`
	Text       string                  `json:"text"`
	Embedding  []float32               `json:"embedding"`
	IndexedAt  time.Time               `json:"indexed_at"`
	SourceHash *string                 `json:"source_hash,omitempty"`
	Extra      map[string]string       `json:"extra,omitempty"`
}

// chunkVectorHit is a similarity query row with its score.
type chunkVectorHit struct {
	chunkVectorRow
	Similarity float64 `json:"similarity"`
}

// VectorStore implements vector.Store on the chunk_vector table using the
// HNSW cosine index.
type VectorStore struct {
	client *Client
}

// NewVectorStore wraps a connected client.
func NewVectorStore(client *Client) *VectorStore {
	return &VectorStore{client: client}
}

// Upsert writes each record under its deterministic id. UPSERT gives the
// idempotency the pipeline relies on: re-running a crawl overwrites
// instead of duplicating.
func (s *VectorStore) Upsert(ctx context.Context, records []vector.Record) error {
	sql := `
		UPSERT type::record("chunk_vector", $id) SET
			namespace = $namespace,
			category = $category,
			source_url = $source_url,
			title = $title,
			search_tags = $search_tags,
			chunk_index = $chunk_index,
			text = $text,
			embedding = $embedding,
			indexed_at = time::now(),
			source_hash = $source_hash,
			extra = $extra
		RETURN AFTER
	`

	for _, record := range records {
		tags := record.Metadata.SearchTags
		if tags == nil {
			tags = []string{}
		}
		var hash *string
		if record.Metadata.SourceHash != "" {
			hash = &record.Metadata.SourceHash
		}

		_, err := surrealdb.Query[[]chunkVectorRow](ctx, s.client.db, sql, map[string]any{
			"id":          record.ID,
			"namespace":   record.Metadata.Namespace,
			"category":    record.Metadata.Category,
			"source_url":  record.Metadata.SourceURL,
			"title":       record.Metadata.Title,
			"search_tags": tags,
			"chunk_index": record.Metadata.ChunkIndex,
			"text":        record.Text,
			"embedding":   record.Embedding,
			"source_hash": hash,
			"extra":       record.Metadata.Extra,
		})
		if err != nil {
			return fmt.Errorf("upsert chunk vector %s: %w", record.ID, wrapQueryError(err))
		}
	}
	return nil
}

// Query runs a KNN search over the HNSW index, scoped by the filter.
func (s *VectorStore) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 10
	}

	categoryClause := ""
	if len(filter.Categories) > 0 {
		categoryClause = "AND category IN $categories"
	}

	// HNSW KNN with ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT *, vector::similarity::cosine(embedding, $emb) AS similarity
		FROM chunk_vector
		WHERE embedding <|%d,40|> $emb
			AND namespace = $namespace %s
		ORDER BY similarity DESC
	`, topK, categoryClause)

	vars := map[string]any{
		"emb":       embedding,
		"namespace": filter.Namespace,
	}
	if len(filter.Categories) > 0 {
		vars["categories"] = filter.Categories
	}

	results, err := surrealdb.Query[[]chunkVectorHit](ctx, s.client.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []vector.Match{}, nil
	}

	rows := (*results)[0].Result
	matches := make([]vector.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, vector.Match{
			ID:         rowID(row.ID),
			Similarity: row.Similarity,
			Text:       row.Text,
			Metadata:   rowMetadata(row.chunkVectorRow),
		})
	}
	return matches, nil
}

// DeleteByFilter removes all vectors in a namespace, optionally limited to
// categories. Used by the cleanup command before a full re-crawl.
func (s *VectorStore) DeleteByFilter(ctx context.Context, filter vector.Filter) error {
	categoryClause := ""
	if len(filter.Categories) > 0 {
		categoryClause = "AND category IN $categories"
	}

	sql := fmt.Sprintf(`DELETE chunk_vector WHERE namespace = $namespace %s`, categoryClause)

	vars := map[string]any{"namespace": filter.Namespace}
	if len(filter.Categories) > 0 {
		vars["categories"] = filter.Categories
	}

	if _, err := surrealdb.Query[any](ctx, s.client.db, sql, vars); err != nil {
		return fmt.Errorf("delete vectors: %w", wrapQueryError(err))
	}
	return nil
}

// HasSourceHash reports whether any chunk from this namespace carries the
// given content hash. Lets the pipeline skip re-embedding unchanged pages.
func (s *VectorStore) HasSourceHash(ctx context.Context, namespace, hash string) (bool, error) {
	sql := `SELECT count() AS c FROM chunk_vector WHERE namespace = $namespace AND source_hash = $hash GROUP ALL`

	results, err := surrealdb.Query[[]struct {
		C int `json:"c"`
	}](ctx, s.client.db, sql, map[string]any{
		"namespace": namespace,
		"hash":      hash,
	})
	if err != nil {
		return false, fmt.Errorf("check source hash: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return false, nil
	}
	return (*results)[0].Result[0].C > 0, nil
}

func rowID(id *surrealmodels.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%v", id.ID)
}

func rowMetadata(row chunkVectorRow) vector.Metadata {
	meta := vector.Metadata{
		Namespace:  row.Namespace,
		Category:   row.Category,
		SourceURL:  row.SourceURL,
		Title:      row.Title,
		SearchTags: row.SearchTags,
		ChunkIndex: row.ChunkIndex,
		IndexedAt:  row.IndexedAt,
		Extra:      row.Extra,
	}
	if row.SourceHash != nil {
		meta.SourceHash = *row.SourceHash
	}
	return meta
}
