package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gmviana/studysearch-go/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSufficient(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"whitespace", "   \n\t  ", false},
		{"too short", "short text", false},
		{"long enough", strings.Repeat("meaningful words here ", 5), true},
		{"scripting placeholder", "Please enable JavaScript to view this page properly.", false},
		{"long page mentioning javascript", strings.Repeat("tutorial content ", 30) + " you need to enable javascript for the demo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sufficient(tt.content); got != tt.want {
				t.Errorf("Sufficient(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

// stubStrategy returns a fixed page or error.
type stubStrategy struct {
	name string
	page *models.ExtractedPage
	err  error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(context.Context, string) (*models.ExtractedPage, error) {
	return s.page, s.err
}

func newStubExtractor(strategies ...Strategy) *Extractor {
	e := &Extractor{logger: discardLogger()}
	e.strategies = strategies
	return e
}

func TestExtractReturnsFirstSufficientTier(t *testing.T) {
	longText := strings.Repeat("substantial content ", 10)
	e := newStubExtractor(
		&stubStrategy{name: "first", err: errors.New("boom")},
		&stubStrategy{name: "second", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "Doc", Content: longText,
		}},
		&stubStrategy{name: "third", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "Never", Content: longText,
		}},
	)

	page := e.Extract(context.Background(), "https://example.org")
	if page.Title != "Doc" {
		t.Errorf("got title %q, want second tier's page", page.Title)
	}
	if page.Content != longText {
		t.Errorf("content was not preserved")
	}
}

func TestExtractAllTiersFail(t *testing.T) {
	e := newStubExtractor(
		&stubStrategy{name: "first", err: errors.New("timeout")},
		&stubStrategy{name: "second", err: errors.New("parse error")},
	)

	page := e.Extract(context.Background(), "https://example.org/broken")
	if page.Content != "" {
		t.Errorf("got content %q, want empty", page.Content)
	}
	if !strings.Contains(page.Title, "https://example.org/broken") {
		t.Errorf("error title should reference the URL, got %q", page.Title)
	}
	if page.HasContent() {
		t.Error("failed page must report no content")
	}
}

func TestExtractInsufficientContentKeepsLinksAndTitle(t *testing.T) {
	links := []string{"https://example.org/a", "https://example.org/b"}
	e := newStubExtractor(
		&stubStrategy{name: "first", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "Thin page", Content: "too short", OutboundLinks: links,
		}},
		&stubStrategy{name: "second", err: errors.New("render failed")},
	)

	page := e.Extract(context.Background(), "https://example.org")
	if page.Content != "" {
		t.Errorf("insufficient content must be blanked, got %q", page.Content)
	}
	if page.Title != "Thin page" {
		t.Errorf("got title %q, want partial result's title", page.Title)
	}
	if len(page.OutboundLinks) != 2 {
		t.Errorf("got %d links, want 2 retained for the frontier", len(page.OutboundLinks))
	}
}

func TestExtractSkipsNotApplicableTier(t *testing.T) {
	longText := strings.Repeat("listing entries ", 10)
	e := newStubExtractor(
		&stubStrategy{name: "pattern", err: ErrNotApplicable},
		&stubStrategy{name: "fallback", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "OK", Content: longText,
		}},
	)

	page := e.Extract(context.Background(), "https://example.org")
	if page.Title != "OK" {
		t.Errorf("got title %q, want fallback tier result", page.Title)
	}
}

func TestExtractPlaceholderEscalatesToNextTier(t *testing.T) {
	rendered := strings.Repeat("rendered application content ", 10)
	e := newStubExtractor(
		&stubStrategy{name: "static", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "App", Content: "You need to enable JavaScript to run this app.",
		}},
		&stubStrategy{name: "headless", page: &models.ExtractedPage{
			URL: "https://example.org", Title: "App", Content: rendered,
		}},
	)

	page := e.Extract(context.Background(), "https://example.org")
	if page.Content != rendered {
		t.Errorf("placeholder content should escalate to the render tier")
	}
}
