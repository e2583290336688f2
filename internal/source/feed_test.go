package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
)

func TestFeedScan(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Crypto News</title>
    <item>
      <title>Bitcoin rises</title>
      <description>&lt;p&gt;Markets react to the &lt;b&gt;latest&lt;/b&gt; move.&lt;/p&gt;</description>
      <link>https://example.com/1</link>
      <guid>1</guid>
    </item>
    <item>
      <title></title>
      <description></description>
      <guid>2</guid>
    </item>
  </channel>
</rss>`)
	}))
	defer ts.Close()

	items, err := NewFeedScanner(0).Scan(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (empty entry skipped)", len(items))
	}

	item := items[0]
	if item.Kind != KindFeed || item.Origin != ts.URL {
		t.Errorf("item = %+v", item)
	}
	if !strings.HasPrefix(item.Text, "Bitcoin rises") {
		t.Errorf("text = %q, want title first", item.Text)
	}
	if strings.Contains(item.Text, "<") {
		t.Errorf("text = %q, want HTML stripped", item.Text)
	}
}

func TestFeedScan_FetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := NewFeedScanner(0).Scan(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestEntryText(t *testing.T) {
	tests := []struct {
		name  string
		entry *gofeed.Item
		want  string
	}{
		{"title and content", &gofeed.Item{Title: "Alert", Content: "<p>details</p>"}, "Alert details"},
		{"description fallback", &gofeed.Item{Title: "Alert", Description: "short"}, "Alert short"},
		{"title already in content", &gofeed.Item{Title: "Alert", Content: "Alert: details"}, "Alert: details"},
		{"title only", &gofeed.Item{Title: "Just a title"}, "Just a title"},
		{"empty", &gofeed.Item{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryText(tt.entry); got != tt.want {
				t.Errorf("entryText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>hello</p>", "hello"},
		{"&amp; &lt; &gt;", "& < >"},
		{"line<br/>break", "line break"},
		{"", ""},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := stripHTML(tt.input); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
