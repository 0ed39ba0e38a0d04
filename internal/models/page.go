// Package models defines data structures for the studysearch pipeline.
package models

import "strings"

// CrawlTask is one pending frontier entry. Tasks are ephemeral: created when
// a link is discovered, consumed when popped from the frontier queue.
type CrawlTask struct {
	URL   string
	Depth int
}

// ExtractedPage is the normalized output of content extraction.
// Content is always a string; an empty string signals "no usable text"
// (extraction failure is never represented as a nil page).
type ExtractedPage struct {
	URL           string
	Title         string
	Content       string
	OutboundLinks []string

	// Extra carries domain-specific fields picked up by site-pattern
	// extraction, e.g. vacancy counts or salary figures on exam boards.
	Extra map[string]string
}

// HasContent reports whether the page carries usable text.
func (p ExtractedPage) HasContent() bool {
	return strings.TrimSpace(p.Content) != ""
}
