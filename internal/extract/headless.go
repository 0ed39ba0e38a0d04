package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/gmviana/studysearch-go/internal/models"
)

// settleDelay gives client-side rendering a moment to populate the DOM
// after the load event.
const settleDelay = 2 * time.Second

// Renderer drives a real browser to produce the post-render page state.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (title, text, html string, err error)
}

// rodRenderer renders pages in a headless Chromium instance. The browser
// is launched lazily on first use and reused for the rest of the run.
type rodRenderer struct {
	timeout time.Duration

	once    sync.Once
	browser *rod.Browser
	initErr error
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

func (r *rodRenderer) connect() (*rod.Browser, error) {
	r.once.Do(func() {
		controlURL, err := launcher.New().Headless(true).Launch()
		if err != nil {
			r.initErr = fmt.Errorf("launch browser: %w", err)
			return
		}
		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			r.initErr = fmt.Errorf("connect browser: %w", err)
			return
		}
		r.browser = browser
	})
	return r.browser, r.initErr
}

func (r *rodRenderer) Render(ctx context.Context, pageURL string) (string, string, string, error) {
	browser, err := r.connect()
	if err != nil {
		return "", "", "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", "", "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	page = page.Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		return "", "", "", fmt.Errorf("wait load: %w", err)
	}
	time.Sleep(settleDelay)

	info, err := page.Info()
	if err != nil {
		return "", "", "", fmt.Errorf("page info: %w", err)
	}

	body, err := page.Element("body")
	if err != nil {
		return "", "", "", fmt.Errorf("locate body: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", "", "", fmt.Errorf("body text: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", "", fmt.Errorf("page html: %w", err)
	}

	return info.Title, text, html, nil
}

// Close shuts down the browser if it was ever launched.
func (r *rodRenderer) Close() {
	if r.browser != nil {
		_ = r.browser.Close()
	}
}

// headlessStrategy is tier 3: full browser render for script-dependent
// pages.
type headlessStrategy struct {
	renderer Renderer
}

func (h *headlessStrategy) Name() string { return "headless" }

func (h *headlessStrategy) Extract(ctx context.Context, pageURL string) (*models.ExtractedPage, error) {
	title, text, html, err := h.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	var links []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		links = extractLinks(doc, pageURL)
		if title == "" {
			title = resolveTitle(doc, pageURL)
		}
	}
	if title == "" {
		title = placeholderTitle(pageURL)
	}

	return &models.ExtractedPage{
		URL:           pageURL,
		Title:         title,
		Content:       normalizeText(text),
		OutboundLinks: links,
	}, nil
}
