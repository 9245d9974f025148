package codeembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/bmatcuk/doublestar/v4"
)

const (
	DefaultRawBase  = "https://raw.githubusercontent.com"
	DefaultHTMLBase = "https://github.com"

	// PlainText is the language of embeds whose fetch failed
	PlainText = "plaintext"

	fetchTimeout = 10 * time.Second
	maxFileSize  = 2 << 20
)

// Chroma styles per site theme
const (
	LightStyle = "github"
	DarkStyle  = "github-dark"
)

// ErrNotAllowed is returned for files outside the allow list
var ErrNotAllowed = errors.New("file is not in the embed allow list")

// Embed is a rendered code embed
type Embed struct {
	Spec     Spec   `json:"spec"`
	Label    string `json:"label"`
	FileURL  string `json:"file_url"`
	RawURL   string `json:"raw_url"`
	Language string `json:"language"`

	// OK is false when the fetch failed and Code holds "<status> - <text>"
	OK        bool          `json:"ok"`
	Code      string        `json:"code"`
	StartLine int           `json:"start_line"`
	HTML      template.HTML `json:"html"`
}

// Embedder fetches and renders embeds
type Embedder struct {
	rawBase  string
	htmlBase string
	http     *http.Client
	allow    []string
}

// EmbedderOption configures an Embedder
type EmbedderOption func(*Embedder)

// WithRawBase overrides the raw content host
func WithRawBase(base string) EmbedderOption {
	return func(e *Embedder) { e.rawBase = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) EmbedderOption {
	return func(e *Embedder) { e.http = hc }
}

// WithAllowList restricts embeds to "user/repo/path" doublestar patterns.
// An empty list allows everything.
func WithAllowList(patterns []string) EmbedderOption {
	return func(e *Embedder) { e.allow = patterns }
}

// NewEmbedder creates an embedder for GitHub-hosted files
func NewEmbedder(opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		rawBase:  DefaultRawBase,
		htmlBase: DefaultHTMLBase,
		http:     &http.Client{Timeout: fetchTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check verifies every allow-list pattern compiles and both highlight
// styles are registered
func (e *Embedder) Check() error {
	for _, pattern := range e.allow {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid embed allow pattern %q", pattern)
		}
	}
	for _, name := range []string{LightStyle, DarkStyle} {
		if _, ok := styles.Registry[name]; !ok {
			return fmt.Errorf("highlight style %q is not available", name)
		}
	}
	return nil
}

// Allowed reports whether spec matches the allow list
func (e *Embedder) Allowed(spec Spec) bool {
	if len(e.allow) == 0 {
		return true
	}
	key := spec.Key()
	for _, pattern := range e.allow {
		if matched, err := doublestar.Match(pattern, key); err == nil && matched {
			return true
		}
	}
	return false
}

// Fetch returns the raw file text. A non-2xx response is not an error: it
// yields ok=false and the "<status> - <text>" line the embed displays.
func (e *Embedder) Fetch(ctx context.Context, spec Spec) (text string, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.rawURL(spec), nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch %s: %w", spec.Key(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)), false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", spec.Key(), err)
	}
	return string(body), true, nil
}

// Render fetches spec and renders it with the chroma style for theme
// ("light" or "dark"). Network errors are rendered like HTTP failures.
func (e *Embedder) Render(ctx context.Context, spec Spec, theme string) (*Embed, error) {
	spec, err := spec.Normalize()
	if err != nil {
		return nil, err
	}
	if !e.Allowed(spec) {
		return nil, fmt.Errorf("%s: %w", spec.Key(), ErrNotAllowed)
	}

	text, ok, err := e.Fetch(ctx, spec)
	if err != nil {
		log.Printf("Warning: code embed fetch failed: %v", err)
		text, ok = fmt.Sprintf("%d - %s", http.StatusBadGateway, http.StatusText(http.StatusBadGateway)), false
	}

	embed := &Embed{
		Spec:     spec,
		Label:    spec.Label(),
		FileURL:  e.fileURL(spec),
		RawURL:   e.rawURL(spec),
		Language: spec.Extension(),
		OK:       ok,
	}
	if !ok {
		embed.Language = PlainText
	}

	window := Slice(text, spec.LineStart, spec.LineEnd)
	embed.Code = window.Text
	embed.StartLine = window.Start
	embed.FileURL += window.Anchor

	embed.HTML, err = Highlight(embed.Code, spec.FileName(), embed.Language, window.Start, spec.TabSize, theme)
	if err != nil {
		return nil, err
	}
	return embed, nil
}

func (e *Embedder) rawURL(spec Spec) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", e.rawBase, spec.User, spec.Repo, spec.Branch, strings.TrimLeft(spec.Path, "/"))
}

func (e *Embedder) fileURL(spec Spec) string {
	return fmt.Sprintf("%s/%s/%s/blob/%s/%s", e.htmlBase, spec.User, spec.Repo, spec.Branch, strings.TrimLeft(spec.Path, "/"))
}

// Highlight renders code as line-numbered HTML. The lexer is chosen by file
// name, then by language name, then falls back to plain text.
func Highlight(code, fileName, language string, firstLine, tabSize int, theme string) (template.HTML, error) {
	var lexer chroma.Lexer
	if language != PlainText {
		lexer = lexers.Match(fileName)
		if lexer == nil {
			lexer = lexers.Get(language)
		}
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := LightStyle
	if theme == "dark" {
		styleName = DarkStyle
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(false),
		chromahtml.WithLineNumbers(true),
		chromahtml.BaseLineNumber(firstLine),
		chromahtml.TabWidth(tabSize),
	)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise %s: %w", fileName, err)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Get(styleName), iterator); err != nil {
		return "", fmt.Errorf("failed to format %s: %w", fileName, err)
	}
	return template.HTML(buf.String()), nil
}
