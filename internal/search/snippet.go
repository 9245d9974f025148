package search

import "strings"

const (
	// Ellipsis prefixes snippets that do not start at the top of the content
	Ellipsis = "..."

	// boundaryWindow is how far ahead a snippet start may move to reach a word boundary
	boundaryWindow = 20
)

// ExtractSnippet cuts snippetLength characters of content around the earliest
// match at matchOffset (in characters). The window opens a fifth of the
// snippet length before the match; when that lands past the start of the
// content it is moved forward to the next word boundary within the following
// characters and the snippet gets an ellipsis. Otherwise the snippet is the
// head of the content.
func ExtractSnippet(content string, matchOffset, snippetLength int) string {
	runes := []rune(content)

	position := float64(matchOffset) - float64(snippetLength)/5
	if position <= 0 {
		return string(substr(runes, 0, snippetLength))
	}

	start := int(position)
	window := string(substr(runes, start, boundaryWindow))
	if i := strings.Index(window, " "); i >= 0 {
		start += len([]rune(window[:i])) + 1
	}
	return Ellipsis + string(substr(runes, start, snippetLength))
}

// substr returns up to n runes starting at start, clamped to the slice
func substr(runes []rune, start, n int) []rune {
	if start < 0 {
		start = 0
	}
	if start >= len(runes) || n <= 0 {
		return nil
	}
	end := start + n
	if end > len(runes) {
		end = len(runes)
	}
	return runes[start:end]
}
