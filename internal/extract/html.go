package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxLinksPerPage caps outbound link collection per page.
const maxLinksPerPage = 20

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reBlockOpen  = regexp.MustCompile(`<(div|p|br|li|td|tr|h1|h2|h3|h4|h5|h6)[^>]*>`)
	reBlockClose = regexp.MustCompile(`</(div|p|li|td|tr|h1|h2|h3|h4|h5|h6)>`)
)

// normalizeText collapses runs of whitespace into single spaces.
func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

// addBlockSpaces injects spaces around block-level tags so that text
// extraction doesn't glue adjacent blocks together.
func addBlockSpaces(html string) string {
	html = reBlockOpen.ReplaceAllString(html, " <$1>")
	return reBlockClose.ReplaceAllString(html, "</$1> ")
}

// textFromHTML extracts normalized plain text from an HTML fragment.
func textFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(addBlockSpaces(html)))
	if err != nil {
		return ""
	}
	return normalizeText(doc.Text())
}

// extractLinks collects anchor targets from a parsed document, resolves
// them against the page URL, keeps same-origin links only, deduplicates
// and caps the result.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "tel:") {
			return true
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(parsed)
		resolved.Fragment = ""

		if resolved.Scheme != base.Scheme || !strings.EqualFold(resolved.Host, base.Host) {
			return true
		}

		link := resolved.String()
		if seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)
		return len(links) < maxLinksPerPage
	})

	return links
}

// resolveTitle picks the page title: document title metadata, else the
// first heading, else a generated placeholder.
func resolveTitle(doc *goquery.Document, pageURL string) string {
	if title := normalizeText(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := normalizeText(og); title != "" {
			return title
		}
	}
	for _, sel := range []string{"h1", "h2"} {
		if title := normalizeText(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	return placeholderTitle(pageURL)
}

func placeholderTitle(pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return "Untitled page (" + u.Host + ")"
	}
	return "Untitled page"
}

// errorTitle annotates a page whose extraction failed entirely.
func errorTitle(pageURL string) string {
	return "[unavailable] " + pageURL
}
