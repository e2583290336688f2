// Package sanitize normalizes harvested text before filtering, dedup, and
// delivery.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	urlRe        = regexp.MustCompile(`https?://\S+|t\.me/\S+`)
	mentionRe    = regexp.MustCompile(`@\w+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	htmlLinkRe   = regexp.MustCompile(`<a\s+href="[^"]+">([^<]+)</a>`)
)

// Clean strips URL-like tokens and @-mentions from text, removes every
// occurrence of each blacklist phrase (case-insensitive, literal), collapses
// whitespace runs to single spaces, and appends signature after a blank line
// when non-empty. Empty input yields an empty string.
func Clean(text string, blacklist []string, signature string) string {
	if text == "" {
		return ""
	}

	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")

	for _, phrase := range blacklist {
		if phrase == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, "")
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if signature != "" {
		text += "\n\n" + signature
	}

	return text
}

// StripHyperlinks unwraps [label](url) and <a href="url">label</a> links to
// their label text and drops remaining bare URLs. Runs on channel content
// before fingerprinting so reposted link variants hash identically.
func StripHyperlinks(text string) string {
	if text == "" {
		return text
	}
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = htmlLinkRe.ReplaceAllString(text, "$1")
	text = urlRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// FirstRunes returns the first n runes of s.
func FirstRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
