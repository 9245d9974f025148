// Package features detects which theme widgets a rendered page needs, so a
// caller only sets up the widgets that have something to act on.
package features

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Widget names, shared with the widget registry
const (
	WidgetSearch     = "search"
	WidgetOutline    = "outline"
	WidgetCodeBlocks = "code-blocks"
	WidgetRepoCards  = "repo-cards"
	WidgetCodeEmbeds = "code-embeds"
	WidgetTheme      = "theme-switch"
)

// Feature describes one widget and the markup that activates it
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Selector    string `json:"selector"`
}

// Catalog lists the widgets sitekit knows how to drive
var Catalog = []Feature{
	{WidgetSearch, "Search box with ranked, highlighted suggestions", "#search-input-desktop, #search-input-mobile"},
	{WidgetOutline, "Scroll-synchronised table of contents", "#TableOfContents"},
	{WidgetCodeBlocks, "Collapsible highlighted code blocks", ".highlight > .chroma"},
	{WidgetRepoCards, "GitHub repository cards", ".repo-card[data-repo]"},
	{WidgetCodeEmbeds, "Remote source file embeds", ".code-embed[data-user][data-repo][data-filepath]"},
	{WidgetTheme, "Light/dark theme switch", ".theme-switch"},
}

// CodeBlock is one highlighted block of the page
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
}

// PageFeatures is what Detect found on a page
type PageFeatures struct {
	Search     bool                `json:"search"`
	Outline    bool                `json:"outline"`
	Theme      bool                `json:"theme_switch"`
	CodeBlocks []CodeBlock         `json:"code_blocks,omitempty"`
	RepoCards  []string            `json:"repo_cards,omitempty"`
	CodeEmbeds []map[string]string `json:"code_embeds,omitempty"`
}

// Widgets returns the names of the widgets the page needs, in catalog order
func (p *PageFeatures) Widgets() []string {
	present := map[string]bool{
		WidgetSearch:     p.Search,
		WidgetOutline:    p.Outline,
		WidgetCodeBlocks: len(p.CodeBlocks) > 0,
		WidgetRepoCards:  len(p.RepoCards) > 0,
		WidgetCodeEmbeds: len(p.CodeEmbeds) > 0,
		WidgetTheme:      p.Theme,
	}

	var names []string
	for _, f := range Catalog {
		if present[f.Name] {
			names = append(names, f.Name)
		}
	}
	return names
}

// Detect scans a rendered page for widget markup
func Detect(r io.Reader) (*PageFeatures, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	found := &PageFeatures{}
	seenRepos := make(map[string]struct{})

	walk(doc, func(n *html.Node) bool {
		switch attr(n, "id") {
		case "search-input-desktop", "search-input-mobile":
			found.Search = true
		case "TableOfContents":
			found.Outline = true
		}

		switch {
		case hasClass(n, "theme-switch"):
			found.Theme = true
		case hasClass(n, "highlight"):
			if block, ok := codeBlock(n); ok {
				found.CodeBlocks = append(found.CodeBlocks, block)
			}
			return false
		case hasClass(n, "repo-card"):
			id := strings.TrimSpace(attr(n, "data-repo"))
			if id != "" {
				if _, dup := seenRepos[id]; !dup {
					seenRepos[id] = struct{}{}
					found.RepoCards = append(found.RepoCards, id)
				}
			}
		case hasClass(n, "code-embed"):
			if attrs := dataAttributes(n); attrs["user"] != "" {
				found.CodeEmbeds = append(found.CodeEmbeds, attrs)
			}
		}
		return true
	})

	return found, nil
}

// codeBlock reads the last <pre class="chroma"><code> of a .highlight
// container. Line-numbered blocks hold two such elements.
func codeBlock(container *html.Node) (CodeBlock, bool) {
	var code *html.Node
	walk(container, func(n *html.Node) bool {
		if n.DataAtom == atom.Code && n.Parent != nil && n.Parent.DataAtom == atom.Pre && hasClass(n.Parent, "chroma") {
			code = n
		}
		return true
	})
	if code == nil {
		return CodeBlock{}, false
	}

	block := CodeBlock{Lines: len(strings.Split(textContent(code), "\n"))}
	for _, class := range strings.Fields(attr(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			block.Language = strings.ToLower(lang)
		}
	}
	return block, true
}

// dataAttributes returns the data-* attributes of n without the prefix
func dataAttributes(n *html.Node) map[string]string {
	out := make(map[string]string)
	for _, a := range n.Attr {
		if key, ok := strings.CutPrefix(a.Key, "data-"); ok {
			out[key] = a.Val
		}
	}
	return out
}

func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
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
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimRight(sb.String(), "\n")
}
