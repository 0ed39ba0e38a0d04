package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"github.com/gmviana/studysearch-go/internal/models"
)

// minContainerChars is the acceptance threshold for a candidate content
// container during static extraction.
const minContainerChars = 100

// maxRedirects caps redirect chains on page fetches.
const maxRedirects = 15

// strippedSelectors are removed from the DOM before text extraction.
const strippedSelectors = "script, style, noscript, nav, header, footer, aside, iframe, form"

// contentCandidates is the ordered list of containers likely to hold the
// main content. The first whose text clears minContainerChars wins.
var contentCandidates = []string{
	"main",
	"#content",
	"#main-content",
	".content",
	".post-content",
	".entry-content",
	"article",
}

// fetcher performs HTTP GETs with a browser-like request signature and
// charset-aware decoding. Shared by the static and site-pattern tiers.
type fetcher struct {
	client    *http.Client
	userAgent string
}

func newFetcher(userAgent string, timeout time.Duration) *fetcher {
	jar, _ := cookiejar.New(nil)
	return &fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
			Jar:     jar,
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// fetch retrieves the page body decoded to UTF-8.
func (f *fetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	html := string(body)
	lower := strings.ToLower(html)
	if strings.Contains(lower, "captcha") && strings.Contains(lower, "security check") {
		return "", fmt.Errorf("captcha challenge detected")
	}

	return html, nil
}

// staticStrategy is tier 1: plain GET plus DOM-based extraction.
type staticStrategy struct {
	fetcher *fetcher
}

func (s *staticStrategy) Name() string { return "static" }

func (s *staticStrategy) Extract(ctx context.Context, pageURL string) (*models.ExtractedPage, error) {
	html, err := s.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(addBlockSpaces(html)))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	title := resolveTitle(doc, pageURL)
	links := extractLinks(doc, pageURL)

	doc.Find(strippedSelectors).Remove()

	content := selectContent(doc)
	if len(content) < minContainerChars {
		// Readability pass rescues pages whose main content hides in
		// unconventional markup.
		if text := readabilityText(html, pageURL); len(text) > len(content) {
			content = text
		}
	}

	return &models.ExtractedPage{
		URL:           pageURL,
		Title:         title,
		Content:       content,
		OutboundLinks: links,
	}, nil
}

// selectContent walks the candidate containers in order and accepts the
// first whose text clears the threshold, else falls back to the body.
func selectContent(doc *goquery.Document) string {
	for _, candidate := range contentCandidates {
		sel := doc.Find(candidate).First()
		if sel.Length() == 0 {
			continue
		}
		if text := normalizeText(sel.Text()); len(text) >= minContainerChars {
			return text
		}
	}
	return normalizeText(doc.Find("body").Text())
}

// readabilityText runs go-readability over the raw markup and flattens
// the article content to plain text.
func readabilityText(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return textFromHTML(article.Content)
}
