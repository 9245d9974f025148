package outline

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element ids and classes of the theme's single-page layout
const (
	tocID         = "TableOfContents"
	tocStaticID   = "toc-static"
	subtitleClass = "single-subtitle"
	tocTitleClass = "toc-title"
)

// Heading is one h1-h6 element of the rendered page
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`

	// Subtitle marks the synthetic subtitle heading under the page title
	Subtitle bool `json:"subtitle,omitempty"`

	// Embedded marks headings injected by embedded content (gists, cards)
	// whose parent is an <article>
	Embedded bool `json:"embedded,omitempty"`
}

// Page is the outline-relevant structure of a rendered page
type Page struct {
	Tree     Tree      `json:"tree"`
	Headings []Heading `json:"headings"`

	// TocSubtract counts leading headings without an outline entry: the
	// page title, the subtitle if any and every embedded heading
	TocSubtract int `json:"tocSubtract"`

	// Kept is set when the page pins its outline to the static container
	Kept bool `json:"kept"`
}

// HeadingIDs returns heading ids in document order
func (p *Page) HeadingIDs() []string {
	ids := make([]string, len(p.Headings))
	for i, h := range p.Headings {
		ids[i] = h.ID
	}
	return ids
}

// Layout returns base with this page's subtract and pin state applied
func (p *Page) Layout(base Layout) Layout {
	base.TocSubtract = p.TocSubtract
	base.Kept = base.Kept || p.Kept
	return base
}

// ParsePage reads a rendered page. A page without a table of contents
// yields an empty tree, which keeps its tracker inert.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := &Page{TocSubtract: 1}
	if toc := findByID(doc, tocID); toc != nil {
		page.Tree = parseTree(toc)
	}
	if static := findByID(doc, tocStaticID); static != nil {
		page.Kept = attr(static, "data-kept") != ""
	}

	used := make(map[string]int)
	walk(doc, func(n *html.Node) bool {
		level := headingLevel(n)
		if level == 0 || hasClass(n, tocTitleClass) {
			return true
		}

		h := Heading{
			ID:       attr(n, "id"),
			Text:     strings.TrimSpace(textContent(n)),
			Level:    level,
			Subtitle: hasClass(n, subtitleClass),
			Embedded: n.Parent != nil && n.Parent.DataAtom == atom.Article,
		}
		if h.ID == "" {
			h.ID = uniqueSlug(h.Text, used)
		}
		used[h.ID]++

		if h.Subtitle {
			page.TocSubtract++
		}
		if h.Embedded {
			page.TocSubtract++
		}
		page.Headings = append(page.Headings, h)
		return false
	})

	return page, nil
}

// parseTree collects every anchor that is the first element of its parent,
// linking each to the nearest enclosing list item that has an entry
func parseTree(toc *html.Node) Tree {
	var tree Tree
	owner := make(map[*html.Node]int)

	walk(toc, func(n *html.Node) bool {
		if n.DataAtom != atom.A || firstElementChild(n.Parent) != n {
			return true
		}

		parent, depth := -1, 0
		for p := n.Parent; p != nil && p != toc; p = p.Parent {
			if p == n.Parent {
				continue
			}
			if idx, ok := owner[p]; ok {
				if parent < 0 {
					parent = idx
				}
				depth++
			}
		}

		idx := len(tree.Entries)
		tree.Entries = append(tree.Entries, Entry{
			Target: anchorTarget(attr(n, "href")),
			Title:  strings.TrimSpace(textContent(n)),
			Parent: parent,
			Depth:  depth,
		})
		if n.Parent.DataAtom == atom.Li {
			owner[n.Parent] = idx
		}
		return false
	})
	return tree
}

func anchorTarget(href string) string {
	i := strings.IndexByte(href, '#')
	if i < 0 {
		return ""
	}
	frag := href[i+1:]
	if unescaped, err := url.PathUnescape(frag); err == nil {
		return unescaped
	}
	return frag
}

func uniqueSlug(text string, used map[string]int) string {
	base := slug.Make(text)
	if base == "" {
		base = "section"
	}
	id := base
	for n := 1; used[id] > 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// walk visits nodes depth-first in document order. fn returns false to
// skip a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findByID(n *html.Node, id string) *html.Node {
	var found *html.Node
	walk(n, func(el *html.Node) bool {
		if found != nil {
			return false
		}
		if attr(el, "id") == id {
			found = el
			return false
		}
		return true
	})
	return found
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func firstElementChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
