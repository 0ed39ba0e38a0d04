// Package chunker splits extracted text into retrievable units. Two modes
// are supported: fixed word-window chunking for general content and
// title-structure-aware chunking for long structured documents such as
// regulatory texts.
package chunker

import (
	"strings"

	"github.com/gmviana/studysearch-go/internal/models"
)

// Mode selects the chunking strategy.
type Mode int

const (
	// ModeFixedWindow groups whitespace-separated words into windows of a
	// configured size.
	ModeFixedWindow Mode = iota

	// ModeTitleAware splits along inferred heading structure, falling back
	// to contextual break rules when no structure is detected.
	ModeTitleAware
)

// Config tunes both strategies. Zero values select the defaults.
type Config struct {
	// WindowWords is the fixed-window size in words. Default 1000; use
	// 400-800 for precision-oriented domains.
	WindowWords int

	// MaxChunkChars forces a split in the contextual fallback once a chunk
	// grows past it.
	MaxChunkChars int

	// FallbackParts is the target count for the last-resort positional
	// split.
	FallbackParts int
}

func (c Config) withDefaults() Config {
	if c.WindowWords <= 0 {
		c.WindowWords = 1000
	}
	if c.MaxChunkChars <= 0 {
		c.MaxChunkChars = 4000
	}
	if c.FallbackParts <= 0 {
		c.FallbackParts = 4
	}
	return c
}

// Chunk splits text into 0-indexed contiguous chunks. The result is
// non-empty for non-empty input and every chunk's text is non-empty.
func Chunk(sourceID, text string, mode Mode, cfg Config) []models.Chunk {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []models.Chunk
	switch mode {
	case ModeTitleAware:
		chunks = titleAware(sourceID, text, cfg)
	default:
		chunks = fixedWindows(sourceID, text, cfg.WindowWords)
	}

	for i := range chunks {
		chunks[i].SourceID = sourceID
		chunks[i].Index = i
	}
	return chunks
}
