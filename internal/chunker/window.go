package chunker

import (
	"strings"

	"github.com/gmviana/studysearch-go/internal/models"
)

// fixedWindows splits text on whitespace and groups the words into
// windows of size words each. The final window may be shorter.
func fixedWindows(sourceID string, text string, size int) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]models.Chunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.Chunk{
			SourceID: sourceID,
			Text:     strings.Join(words[start:end], " "),
		})
	}
	return chunks
}
