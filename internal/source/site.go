package source

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/msolovyev/chanrelay/internal/sanitize"
)

const (
	siteSnippetRunes   = 1000
	defaultSiteTimeout = 30 * time.Second
	siteUserAgent      = "Mozilla/5.0 (compatible; chanrelay/1.0; +https://github.com/msolovyev/chanrelay)"
)

// Subtrees that carry boilerplate rather than page content.
const boilerplateSelector = "script, style, nav, footer"

var spaceRe = regexp.MustCompile(`\s+`)

// SiteScanner extracts the leading visible text of a web page.
type SiteScanner struct {
	httpc *http.Client
}

// NewSiteScanner returns a scanner whose fetches are bounded by timeout.
func NewSiteScanner(timeout time.Duration) *SiteScanner {
	if timeout <= 0 {
		timeout = defaultSiteTimeout
	}
	return &SiteScanner{httpc: &http.Client{Timeout: timeout}}
}

// Scan fetches url and returns at most one item: the page's leading text
// snippet. Returns (nil, nil) when the page has no extractable text.
func (s *SiteScanner) Scan(ctx context.Context, url string) (*Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", siteUserAgent)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	doc.Find(boilerplateSelector).Remove()

	text := strings.TrimSpace(spaceRe.ReplaceAllString(doc.Text(), " "))
	if text == "" {
		return nil, nil
	}

	return &Item{
		Kind:   KindSite,
		Origin: url,
		Text:   sanitize.FirstRunes(text, siteSnippetRunes),
	}, nil
}
