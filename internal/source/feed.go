package source

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/msolovyev/chanrelay/internal/sanitize"
)

const (
	feedFetchTimeout = 30 * time.Second
	feedUserAgent    = siteUserAgent
	feedSnippetRunes = 1000
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// FeedScanner fetches items from RSS/Atom feeds.
type FeedScanner struct {
	timeout time.Duration
}

// NewFeedScanner returns a scanner whose fetches are bounded by timeout.
func NewFeedScanner(timeout time.Duration) *FeedScanner {
	if timeout <= 0 {
		timeout = feedFetchTimeout
	}
	return &FeedScanner{timeout: timeout}
}

// feedTransport injects a User-Agent header into every request.
type feedTransport struct {
	base http.RoundTripper
}

func (t *feedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", feedUserAgent)
	return t.base.RoundTrip(req)
}

// Scan fetches feedURL and returns one item per entry, in feed order. The
// ledger, not a time window, decides what is new.
func (f *FeedScanner) Scan(ctx context.Context, feedURL string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = &http.Client{
		Timeout:   f.timeout,
		Transport: &feedTransport{base: http.DefaultTransport},
	}
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}

	var items []Item
	for _, entry := range feed.Items {
		text := entryText(entry)
		if text == "" {
			continue
		}
		items = append(items, Item{
			Kind:   KindFeed,
			Origin: feedURL,
			Text:   sanitize.FirstRunes(text, feedSnippetRunes),
		})
	}
	return items, nil
}

func entryText(entry *gofeed.Item) string {
	raw := entry.Content
	if raw == "" {
		raw = entry.Description
	}

	text := stripHTML(raw)

	if entry.Title != "" && !strings.Contains(text, entry.Title) {
		if text == "" {
			text = entry.Title
		} else {
			text = entry.Title + " " + text
		}
	}

	return strings.TrimSpace(text)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}
