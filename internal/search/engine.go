package search

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Engine runs queries against one backend and enforces the result-set
// invariants: unique URIs, relevance order, bounded length.
type Engine struct {
	backend Backend
	opts    Options
}

// NewEngine creates an engine. A nil backend yields an engine whose queries
// are always empty.
func NewEngine(backend Backend, opts Options) *Engine {
	return &Engine{
		backend: backend,
		opts:    opts.WithDefaults(),
	}
}

// Options returns the effective options
func (e *Engine) Options() Options { return e.opts }

// Backend returns the configured backend, or nil
func (e *Engine) Backend() Backend { return e.backend }

// Query returns matches for text. Failures are logged and produce an empty
// set, so callers cannot tell a failure from a query with no matches.
func (e *Engine) Query(ctx context.Context, text string) ResultSet {
	results, err := e.QueryDetailed(ctx, text)
	if err != nil {
		log.Printf("Warning: search for %q failed: %v", text, err)
	}
	return results
}

// QueryDetailed behaves like Query but also reports why a set is empty.
// The returned set is always non-nil and empty when err is non-nil.
func (e *Engine) QueryDetailed(ctx context.Context, text string) (ResultSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ResultSet{}, nil
	}
	if e.backend == nil {
		return ResultSet{}, ErrNoBackend
	}

	results, err := e.backend.Search(ctx, text, e.opts)
	if err != nil {
		return ResultSet{}, fmt.Errorf("%s backend: %w", e.backend.Name(), err)
	}

	return Truncate(FirstWins(results), e.opts.MaxResultLength), nil
}
