package search

import (
	"sort"
	"strings"
	"unicode"
)

// Highlighter wraps matched terms in an HTML element. Input text is treated
// as HTML: tags and character references are never searched, and text that
// already sits inside the highlight element is left alone, so highlighting
// the same text twice yields the same result.
type Highlighter struct {
	tag   string
	open  string
	close string
}

// NewHighlighter returns a highlighter for the given element name ("em" by default)
func NewHighlighter(tag string) *Highlighter {
	if tag == "" {
		tag = DefaultHighlightTag
	}
	return &Highlighter{
		tag:   tag,
		open:  "<" + tag + ">",
		close: "</" + tag + ">",
	}
}

// Tag returns the element name
func (h *Highlighter) Tag() string { return h.tag }

// Highlight wraps every case-insensitive occurrence of any term. Terms match
// anywhere inside words; overlapping occurrences merge into one element.
func (h *Highlighter) Highlight(text string, terms []string) string {
	needles := make([][]rune, 0, len(terms))
	for _, term := range terms {
		if r := lowerRunes(term); len(r) > 0 {
			needles = append(needles, r)
		}
	}
	if len(needles) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16)

	depth := 0
	rest := text
	for rest != "" {
		switch {
		case rest[0] == '<':
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				b.WriteString(h.wrap(rest, needles, depth))
				return b.String()
			}
			markup := rest[:end+1]
			depth += h.depthDelta(markup)
			if depth < 0 {
				depth = 0
			}
			b.WriteString(markup)
			rest = rest[end+1:]
		case rest[0] == '&':
			if end := entityEnd(rest); end > 0 {
				b.WriteString(rest[:end])
				rest = rest[end:]
				continue
			}
			fallthrough
		default:
			end := strings.IndexAny(rest[1:], "<&")
			if end < 0 {
				end = len(rest)
			} else {
				end++
			}
			b.WriteString(h.wrap(rest[:end], needles, depth))
			rest = rest[end:]
		}
	}
	return b.String()
}

// depthDelta reports whether markup opens (+1) or closes (-1) the highlight element
func (h *Highlighter) depthDelta(markup string) int {
	lower := strings.ToLower(markup)
	switch {
	case lower == h.open || strings.HasPrefix(lower, "<"+h.tag+" "):
		return 1
	case lower == h.close:
		return -1
	}
	return 0
}

// wrap highlights a run of plain text; text inside the highlight element is returned untouched
func (h *Highlighter) wrap(segment string, needles [][]rune, depth int) string {
	if depth > 0 {
		return segment
	}

	runes := []rune(segment)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	var spans [][2]int
	for _, needle := range needles {
		for i := 0; i+len(needle) <= len(lower); i++ {
			if runesEqual(lower[i:i+len(needle)], needle) {
				spans = append(spans, [2]int{i, i + len(needle)})
			}
		}
	}
	if len(spans) == 0 {
		return segment
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] > spans[j][1]
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			if s[1] > last[1] {
				last[1] = s[1]
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, s := range merged {
		b.WriteString(string(runes[prev:s[0]]))
		b.WriteString(h.open)
		b.WriteString(string(runes[s[0]:s[1]]))
		b.WriteString(h.close)
		prev = s[1]
	}
	b.WriteString(string(runes[prev:]))
	return b.String()
}

// entityEnd returns the length of a character reference at the start of s, or 0
func entityEnd(s string) int {
	for i := 1; i < len(s) && i <= 32; i++ {
		c := s[i]
		switch {
		case c == ';':
			if i == 1 {
				return 0
			}
			return i + 1
		case c == '#' && i == 1:
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return 0
		}
	}
	return 0
}

func lowerRunes(s string) []rune {
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
