package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func newStaticStrategy() *staticStrategy {
	return &staticStrategy{fetcher: newFetcher("test-agent", 5*time.Second)}
}

func TestStaticExtractsMainContainer(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Course Guide</title></head><body>
		<nav>Home | About | Contact navigation menu entries</nav>
		<main>This is the course guide main content with plenty of explanatory
		text about study plans, schedules and reading lists for candidates.</main>
		<footer>copyright notice</footer>
	</body></html>`)

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if page.Title != "Course Guide" {
		t.Errorf("got title %q, want %q", page.Title, "Course Guide")
	}
	if !strings.Contains(page.Content, "study plans") {
		t.Errorf("main content missing from %q", page.Content)
	}
	if strings.Contains(page.Content, "navigation menu") {
		t.Errorf("nav content should be stripped, got %q", page.Content)
	}
	if strings.Contains(page.Content, "copyright") {
		t.Errorf("footer content should be stripped, got %q", page.Content)
	}
}

func TestStaticFallsBackToBody(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Plain</title></head><body>
		<p>No semantic containers here, just paragraphs of text that should
		still be extracted as the page body content for indexing purposes.</p>
	</body></html>`)

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !strings.Contains(page.Content, "paragraphs of text") {
		t.Errorf("body fallback missing content: %q", page.Content)
	}
}

func TestStaticTitleFallsBackToHeading(t *testing.T) {
	server := serveHTML(t, `<html><body>
		<h1>Exam Notice 2026</h1>
		<p>Details about the examination procedure and registration deadlines
		published by the examination board for this cycle.</p>
	</body></html>`)

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if page.Title != "Exam Notice 2026" {
		t.Errorf("got title %q, want heading fallback", page.Title)
	}
}

func TestStaticGeneratesPlaceholderTitle(t *testing.T) {
	server := serveHTML(t, `<html><body><p>Anonymous page with enough text to
	pass the extraction threshold but no title metadata or headings at all,
	which forces the placeholder path.</p></body></html>`)

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !strings.HasPrefix(page.Title, "Untitled page") {
		t.Errorf("got title %q, want generated placeholder", page.Title)
	}
}

func TestStaticExtractLinks(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Links</title></head><body>
		<main>A listing page full of links to other resources on this site,
		used to verify link resolution, filtering and deduplication logic.</main>
		<a href="/relative">rel</a>
		<a href="/relative">duplicate</a>
		<a href="/with#fragment">frag</a>
		<a href="https://elsewhere.example/away">offsite</a>
		<a href="mailto:admin@example.org">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="#top">anchor</a>
	</body></html>`)

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	want := map[string]bool{
		server.URL + "/relative": true,
		server.URL + "/with":     true,
	}
	if len(page.OutboundLinks) != len(want) {
		t.Fatalf("got %d links %v, want %d", len(page.OutboundLinks), page.OutboundLinks, len(want))
	}
	for _, link := range page.OutboundLinks {
		if !want[link] {
			t.Errorf("unexpected link %q", link)
		}
	}
}

func TestStaticLinkCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>Many</title></head><body><main>Index page
	with far more outbound links than the per-page collection cap allows.</main>`)
	for i := 0; i < 40; i++ {
		sb.WriteString(`<a href="/page-` + strings.Repeat("x", i+1) + `">link</a>`)
	}
	sb.WriteString(`</body></html>`)
	server := serveHTML(t, sb.String())

	page, err := newStaticStrategy().Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(page.OutboundLinks) > maxLinksPerPage {
		t.Errorf("got %d links, cap is %d", len(page.OutboundLinks), maxLinksPerPage)
	}
}

func TestStaticRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := newStaticStrategy().Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetcherDetectsCaptcha(t *testing.T) {
	server := serveHTML(t, `<html><body>Please complete the CAPTCHA below.
	This security check verifies you are not a robot before continuing.</body></html>`)

	f := newFetcher("test-agent", 5*time.Second)
	if _, err := f.fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected captcha detection error")
	}
}

func TestAddBlockSpaces(t *testing.T) {
	html := `<div>first</div><div>second</div>`
	text := textFromHTML(html)
	if text != "first second" {
		t.Errorf("got %q, want blocks separated by a space", text)
	}
}

func TestNormalizeText(t *testing.T) {
	got := normalizeText("  a\n\nb\t\tc   d  ")
	if got != "a b c d" {
		t.Errorf("got %q, want %q", got, "a b c d")
	}
}
