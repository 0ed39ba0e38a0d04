package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newPatternStrategy() *sitePatternStrategy {
	return &sitePatternStrategy{fetcher: newFetcher("test-agent", 5*time.Second)}
}

func TestSitePatternNotApplicableForUnknownSites(t *testing.T) {
	s := newPatternStrategy()
	_, err := s.Extract(context.Background(), "https://ordinary-blog.example/post/42")
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("error = %v, want ErrNotApplicable", err)
	}
}

func TestSitePatternExtractsExamListing(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Open Exams</title></head><body>
		<div class="card">Tax Auditor - State Revenue - 150 vagas - R$ 21.000,00 monthly</div>
		<div class="card">Court Analyst - Federal Court - 80 vagas - R$ 13.500,00 monthly</div>
		<div class="card">Police Officer - Civil Police - 500 vagas - R$ 9.800,00 monthly</div>
	</body></html>`)

	page, err := newPatternStrategy().Extract(context.Background(), server.URL+"/concursos/abertos")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if page.Title != "Open Exams" {
		t.Errorf("got title %q, want %q", page.Title, "Open Exams")
	}

	lines := strings.Split(page.Content, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d line items, want 3:\n%s", len(lines), page.Content)
	}
	if !strings.Contains(lines[0], "Tax Auditor") {
		t.Errorf("first item missing name: %q", lines[0])
	}
	if !strings.Contains(lines[0], "salary: R$ 21.000,00") {
		t.Errorf("first item missing salary: %q", lines[0])
	}

	if page.Extra["pattern_family"] != "exam-board" {
		t.Errorf("pattern_family = %q, want exam-board", page.Extra["pattern_family"])
	}
	if page.Extra["item_count"] != "3" {
		t.Errorf("item_count = %q, want 3", page.Extra["item_count"])
	}
	if page.Extra["total_vacancies"] != "730" {
		t.Errorf("total_vacancies = %q, want 730", page.Extra["total_vacancies"])
	}
}

func TestSitePatternRequiresRepeatingItems(t *testing.T) {
	// Two entries are below the listing threshold; the tier declines so the
	// generic tiers can handle the page.
	server := serveHTML(t, `<html><body>
		<div class="card">Only item one with some descriptive text</div>
		<div class="card">Only item two with some descriptive text</div>
	</body></html>`)

	_, err := newPatternStrategy().Extract(context.Background(), server.URL+"/concursos")
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("error = %v, want ErrNotApplicable for sparse listing", err)
	}
}

func TestSitePatternJobBoard(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Openings</title></head><body>
		<article class="job">Backend Developer at Acme, remote, $ 120,000 per year</article>
		<article class="job">Data Engineer at Initech, hybrid, $ 135,000 per year</article>
		<article class="job">SRE at Globex, onsite, $ 140,000 per year</article>
		<article class="job">QA Analyst at Umbrella, remote, $ 95,000 per year</article>
	</body></html>`)

	page, err := newPatternStrategy().Extract(context.Background(), server.URL+"/jobs/search")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if page.Extra["pattern_family"] != "job-board" {
		t.Errorf("pattern_family = %q, want job-board", page.Extra["pattern_family"])
	}
	if page.Extra["item_count"] != "4" {
		t.Errorf("item_count = %q, want 4", page.Extra["item_count"])
	}
}

func TestFormatItem(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantLine     bool
		wantVacancy  int
		wantSalaryIn string
	}{
		{"too short", "tiny", false, 0, ""},
		{"plain", "Administrative Assistant - City Hall opening", true, 0, ""},
		{"with vacancies", "Engineer - 25 vagas available", true, 25, ""},
		{"thousands separator", "Professor - 1.200 vagas statewide", true, 1200, ""},
		{"with salary", "Analyst position paying R$ 8.500,00", true, 0, "R$ 8.500,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, vacancies := formatItem(tt.text)
			if (line != "") != tt.wantLine {
				t.Fatalf("formatItem(%q) line = %q, want present=%v", tt.text, line, tt.wantLine)
			}
			if vacancies != tt.wantVacancy {
				t.Errorf("vacancies = %d, want %d", vacancies, tt.wantVacancy)
			}
			if tt.wantSalaryIn != "" && !strings.Contains(line, tt.wantSalaryIn) {
				t.Errorf("line %q missing salary %q", line, tt.wantSalaryIn)
			}
		})
	}
}
