// Package source scans configured channels, websites, and feeds for new
// items.
package source

import (
	"errors"
	"fmt"
)

// Kind identifies where an item came from.
type Kind string

const (
	KindChannel Kind = "channel"
	KindSite    Kind = "site"
	KindFeed    Kind = "feed"
)

// MediaKind classifies a channel attachment for delivery dispatch.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaOther    MediaKind = "other"
)

// MediaRef is an opaque reference the delivery transport can resend.
type MediaRef struct {
	Kind MediaKind
	Ref  string
}

// String returns the stable form mixed into content fingerprints. A nil ref
// yields "".
func (m *MediaRef) String() string {
	if m == nil {
		return ""
	}
	return string(m.Kind) + ":" + m.Ref
}

// Item is one piece of harvested content, constructed per scan pass and
// discarded after the publish/skip decision.
type Item struct {
	Kind      Kind
	Origin    string // channel id, site URL, or feed URL
	MessageID int64  // channel items only; used for forward-style relay
	Text      string
	Media     *MediaRef
}

// Channel access failures; the loop skips the offending source and continues
// the pass.
var (
	ErrAccessDenied = errors.New("source: access denied")
	ErrNotFound     = errors.New("source: not found")
)

// FetchError reports a site fetch that failed or returned a non-2xx status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }
