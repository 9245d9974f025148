package search

import (
	"context"
	"errors"
)

// Defaults applied when the site config leaves a value unset
const (
	DefaultMaxResultLength = 10
	DefaultSnippetLength   = 50
	DefaultHighlightTag    = "em"
)

// ErrNoBackend is returned by QueryDetailed when the engine has no backend
var ErrNoBackend = errors.New("search backend not configured")

// MatchResult is one rendered suggestion. Title and Context may carry
// highlight markup and are safe to insert as HTML.
type MatchResult struct {
	URI     string `json:"uri"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Context string `json:"context"`
}

// ResultSet is ordered by backend relevance, holds at most one result per
// URI and never exceeds the configured maximum length.
type ResultSet []MatchResult

// Options controls result shaping shared by every backend
type Options struct {
	MaxResultLength int
	SnippetLength   int
	HighlightTag    string
}

// DefaultOptions returns the theme's documented defaults
func DefaultOptions() Options {
	return Options{
		MaxResultLength: DefaultMaxResultLength,
		SnippetLength:   DefaultSnippetLength,
		HighlightTag:    DefaultHighlightTag,
	}
}

// WithDefaults fills zero or negative fields from DefaultOptions
func (o Options) WithDefaults() Options {
	if o.MaxResultLength <= 0 {
		o.MaxResultLength = DefaultMaxResultLength
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = DefaultSnippetLength
	}
	if o.HighlightTag == "" {
		o.HighlightTag = DefaultHighlightTag
	}
	return o
}

// Backend is a pluggable search provider. Implementations initialize
// themselves lazily and exactly once, even under concurrent first queries.
type Backend interface {
	// Name identifies the backend in logs and the search footer
	Name() string

	// Search returns matches in relevance order. It may return more than
	// MaxResultLength results or duplicate URIs; the engine enforces both.
	Search(ctx context.Context, query string, opts Options) (ResultSet, error)
}
