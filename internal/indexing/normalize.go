package indexing

import (
	"regexp"
	"strings"
)

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}

// CollapseWhitespace folds runs of whitespace (including newlines) into a
// single space and trims both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Normalize prepares a record for indexing. Content arrives plainified by the
// site generator but may still carry markdown links and layout whitespace.
// Records without an objectID fall back to their uri.
func Normalize(r Record) Record {
	r.Title = CollapseWhitespace(StripMarkdownLinks(r.Title))
	r.Content = CollapseWhitespace(StripMarkdownLinks(r.Content))
	r.URI = strings.TrimSpace(r.URI)
	if r.ID == "" {
		r.ID = r.URI
	}
	return r
}
