// Package filter decides whether harvested text matches the operator's
// keyword set.
package filter

import "strings"

// Matches reports whether text contains any of the keywords, compared
// case-insensitively as substrings. An empty keyword set matches everything;
// empty text matches nothing unless the set is empty.
func Matches(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
