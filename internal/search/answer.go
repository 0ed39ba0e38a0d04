package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/gmviana/studysearch-go/internal/models"
)

// answerSnippetLimit caps how much of one result feeds the model context.
const answerSnippetLimit = 500

// Synthesizer generates an answer from a query and retrieved context.
type Synthesizer interface {
	SynthesizeAnswer(ctx context.Context, query, searchContext string) (string, error)
}

// Answer runs an integrated search and synthesizes an answer from the
// merged results. The response is returned alongside the answer so callers
// can show sources.
func (a *Aggregator) Answer(ctx context.Context, query string, model Synthesizer, opts Options) (string, *Response, error) {
	response, err := a.Integrated(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}
	if len(response.Results) == 0 {
		return "No indexed content matches this question.", response, nil
	}

	answer, err := model.SynthesizeAnswer(ctx, query, buildAnswerContext(response.Results))
	if err != nil {
		return "", response, fmt.Errorf("synthesize answer: %w", err)
	}
	return answer, response, nil
}

// buildAnswerContext formats results as titled sections the model can cite
// from, in retrieved order.
func buildAnswerContext(results []models.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (%s)\n", result.Title, result.Origin)

		content := result.Content
		if len(content) > answerSnippetLimit {
			content = content[:answerSnippetLimit] + "..."
		}
		sb.WriteString(content + "\n")

		if result.SourceURL != "" {
			sb.WriteString("Source: " + result.SourceURL + "\n")
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n---\n")
}
