package models

// OriginTag identifies which index a search result came from.
type OriginTag string

const (
	// OriginCurated marks results from the curated/domain dataset.
	OriginCurated OriginTag = "curated"

	// OriginCrawled marks results from administrator-configured sites.
	OriginCrawled OriginTag = "crawled"
)

// SearchResult is one ranked match returned to the caller. Results are
// produced per query and never persisted.
type SearchResult struct {
	ID         string
	Title      string
	Content    string
	SourceURL  string
	Similarity float64
	Origin     OriginTag
}

// SourceBreakdown reports how many results each source contributed.
type SourceBreakdown struct {
	Curated int `json:"curated"`
	Crawled int `json:"crawled"`
}
