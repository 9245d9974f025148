package cli

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Accent style for titles and matched terms
	accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for URIs, dates and hints
	muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	bold       = lipgloss.NewStyle().Bold(true)
	accentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	warning    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

// highlightTag matches one highlighted span of a search result
var highlightTag = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9-]*)>(.*?)</([a-zA-Z][a-zA-Z0-9-]*)>`)

// renderHighlighted turns the HTML of a result field into terminal text
// with matched terms in the accent style
func renderHighlighted(s string) string {
	var sb strings.Builder
	last := 0
	for _, m := range highlightTag.FindAllStringSubmatchIndex(s, -1) {
		if s[m[2]:m[3]] != s[m[6]:m[7]] {
			continue
		}
		sb.WriteString(html.UnescapeString(s[last:m[0]]))
		sb.WriteString(accentBold.Render(html.UnescapeString(s[m[4]:m[5]])))
		last = m[1]
	}
	sb.WriteString(html.UnescapeString(s[last:]))
	return sb.String()
}
