package models

// StructureHints describes where a chunk sits in a document's heading
// structure. Present only on chunks produced by title-aware chunking.
type StructureHints struct {
	// Title is the heading text the chunk accumulated under.
	Title string

	// Level is the inferred hierarchy level. Lower is higher in the
	// hierarchy: explicit chaptering < sectioning < decimal numbering
	// depth < generic uppercase heading.
	Level int

	// ParentIndex points at the nearest preceding chunk with a strictly
	// lower level. Nil for top-level chunks.
	ParentIndex *int
}

// Chunk is one retrievable unit of text. Chunks are 0-indexed and
// contiguous within a source document, and their text is never empty.
type Chunk struct {
	SourceID string
	Index    int
	Text     string
	Hints    *StructureHints
}
