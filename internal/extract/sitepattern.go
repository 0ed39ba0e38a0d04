package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gmviana/studysearch-go/internal/models"
)

// siteFamily describes a group of structurally similar sites (exam boards,
// job boards) whose listing pages defeat generic container extraction. The
// item selectors target repeating listing entries; the line heuristics turn
// each entry into a readable line item.
type siteFamily struct {
	name string

	// hostMarkers match against the URL host, any marker suffices.
	hostMarkers []string

	// itemSelectors are tried in order; the first selector matching at
	// least minPatternItems nodes is used.
	itemSelectors []string
}

// minPatternItems is how many repeating entries a selector must match
// before the pattern tier considers the page a listing.
const minPatternItems = 3

var siteFamilies = []siteFamily{
	{
		name:          "exam-board",
		hostMarkers:   []string{"concurso", "cespe", "cebraspe", "fgv", "vunesp", "examboard"},
		itemSelectors: []string{".concurso-item", ".exam-item", "tr.listing-row", "li.edital", ".card"},
	},
	{
		name:          "job-board",
		hostMarkers:   []string{"vagas", "emprego", "jobs", "careers", "trabalho"},
		itemSelectors: []string{".vaga-item", ".job-item", ".job-card", "li.vacancy", "article.job"},
	},
}

var (
	reVacancyCount = regexp.MustCompile(`(?i)(\d[\d.,]*)\s*(vagas?|vacanc|positions?|openings?)`)
	reSalary       = regexp.MustCompile(`(?i)(r\$|\$|€)\s*[\d.,]+`)
)

// sitePatternStrategy is tier 2: structured extraction for known listing
// site families. It refuses URLs outside its families with ErrNotApplicable
// so the orchestrator skips it silently.
type sitePatternStrategy struct {
	fetcher *fetcher
}

func (s *sitePatternStrategy) Name() string { return "site-pattern" }

func (s *sitePatternStrategy) Extract(ctx context.Context, pageURL string) (*models.ExtractedPage, error) {
	family := matchFamily(pageURL)
	if family == nil {
		return nil, ErrNotApplicable
	}

	html, err := s.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(addBlockSpaces(html)))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	items := selectItems(doc, family)
	if len(items) == 0 {
		return nil, ErrNotApplicable
	}

	lines := make([]string, 0, len(items))
	totalVacancies := 0
	for _, item := range items {
		line, vacancies := formatItem(item)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		totalVacancies += vacancies
	}
	if len(lines) == 0 {
		return nil, ErrNotApplicable
	}

	extra := map[string]string{
		"pattern_family": family.name,
		"item_count":     strconv.Itoa(len(lines)),
	}
	if totalVacancies > 0 {
		extra["total_vacancies"] = strconv.Itoa(totalVacancies)
	}

	return &models.ExtractedPage{
		URL:           pageURL,
		Title:         resolveTitle(doc, pageURL),
		Content:       strings.Join(lines, "\n"),
		OutboundLinks: extractLinks(doc, pageURL),
		Extra:         extra,
	}, nil
}

func matchFamily(pageURL string) *siteFamily {
	lower := strings.ToLower(pageURL)
	for i := range siteFamilies {
		for _, marker := range siteFamilies[i].hostMarkers {
			if strings.Contains(lower, marker) {
				return &siteFamilies[i]
			}
		}
	}
	return nil
}

func selectItems(doc *goquery.Document, family *siteFamily) []string {
	for _, selector := range family.itemSelectors {
		sel := doc.Find(selector)
		if sel.Length() < minPatternItems {
			continue
		}
		var items []string
		sel.Each(func(_ int, s *goquery.Selection) {
			items = append(items, normalizeText(s.Text()))
		})
		return items
	}
	return nil
}

// formatItem turns one listing entry into a single descriptive line and
// reports the vacancy count it advertises, if any.
func formatItem(text string) (string, int) {
	if len(text) < 10 {
		return "", 0
	}

	parts := []string{text}
	vacancies := 0
	if m := reVacancyCount.FindStringSubmatch(text); m != nil {
		raw := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		if n, err := strconv.Atoi(raw); err == nil {
			vacancies = n
		}
	}
	if m := reSalary.FindString(text); m != "" {
		parts = append(parts, "salary: "+m)
	}

	return strings.Join(parts, " | "), vacancies
}
