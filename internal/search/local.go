package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	blevesearch "github.com/blevesearch/bleve/v2/search"
	"golang.org/x/sync/singleflight"

	"github.com/sitekit/sitekit/internal/indexing"
)

// candidateFactor widens the bleve page so duplicates can be dropped
// without starving the result set
const candidateFactor = 8

// LocalBackend searches a bleve index built from the site's index.json. The
// index is built on first use, exactly once, and retained until Refresh
// swaps in a new one.
type LocalBackend struct {
	source   indexing.Source
	analyzer string
	dir      string

	// current holds the active index (atomic access for lock-free reads)
	current atomic.Pointer[Index]

	// build coalesces concurrent first queries into one index build
	build singleflight.Group

	// refreshMu prevents concurrent refresh operations
	refreshMu sync.Mutex

	// inflight tracks searches so a swapped-out index is closed only after they finish
	inflight sync.WaitGroup
}

// LocalOption configures a LocalBackend
type LocalOption func(*LocalBackend)

// WithAnalyzer selects the bleve analyzer ("standard", "en", "cjk", ...)
func WithAnalyzer(name string) LocalOption {
	return func(b *LocalBackend) { b.analyzer = name }
}

// WithPersistedIndex makes the backend open an index built by cmd/indexer
// before falling back to building one in memory
func WithPersistedIndex(dir string) LocalOption {
	return func(b *LocalBackend) { b.dir = dir }
}

// NewLocalBackend creates a backend over source. Nothing is loaded until
// the first query or an explicit EnsureInitialized.
func NewLocalBackend(source indexing.Source, opts ...LocalOption) *LocalBackend {
	b := &LocalBackend{source: source}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// newLocalBackendWithIndex is used by tests to skip the build step
func newLocalBackendWithIndex(idx Index) *LocalBackend {
	b := &LocalBackend{}
	b.current.Store(&idx)
	return b
}

func (b *LocalBackend) Name() string { return "local" }

// EnsureInitialized builds or opens the index if that has not happened yet.
// Concurrent callers share a single build.
func (b *LocalBackend) EnsureInitialized(ctx context.Context) error {
	if b.current.Load() != nil {
		return nil
	}

	_, err, _ := b.build.Do("index", func() (interface{}, error) {
		if b.current.Load() != nil {
			return nil, nil
		}

		idx, err := b.open(ctx)
		if err != nil {
			return nil, err
		}
		if !b.current.CompareAndSwap(nil, &idx) {
			// A refresh installed a newer index while this one was building
			idx.Close()
		}
		return nil, nil
	})
	return err
}

// open prefers a persisted index of the current schema version
func (b *LocalBackend) open(ctx context.Context) (Index, error) {
	if b.dir != "" {
		versionPath := indexing.VersionPath(b.dir)
		if v := indexing.ReadVersion(versionPath); v == indexing.IndexSchemaVersion {
			if idx, err := bleve.Open(b.dir); err == nil {
				count, _ := idx.DocCount()
				log.Printf("✓ Search index opened (%d docs, persisted index v%d)", count, v)
				return WrapBleve(idx), nil
			} else {
				log.Printf("Warning: persisted index at %s unusable: %v", b.dir, err)
			}
		} else if _, err := os.Stat(b.dir); err == nil {
			log.Printf("Index schema version mismatch (have: v%d, want: v%d), building in memory...",
				v, indexing.IndexSchemaVersion)
		}
	}
	return b.buildMemory(ctx)
}

// buildMemory loads every record from the source into a fresh in-memory index
func (b *LocalBackend) buildMemory(ctx context.Context) (Index, error) {
	if b.source == nil {
		return nil, errors.New("no index source configured")
	}

	startTime := time.Now()
	records, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records from %s: %w", b.source, err)
	}

	idx, err := bleve.NewMemOnly(indexing.NewIndexMapping(b.analyzer))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := indexing.IndexRecords(idx, records, nil); err != nil {
		idx.Close()
		return nil, err
	}

	log.Printf("✓ Search index built (%d records from %s) in %v",
		len(records), b.source, time.Since(startTime).Round(time.Millisecond))
	return WrapBleve(idx), nil
}

// Refresh rebuilds the index from the source and swaps it in. Searches
// running on the old index complete before it is closed.
func (b *LocalBackend) Refresh(ctx context.Context) (uint64, error) {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	idx, err := b.buildMemory(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh failed: %w", err)
	}

	old := b.current.Swap(&idx)
	if old != nil {
		go func(old Index) {
			b.inflight.Wait()
			if err := old.Close(); err != nil {
				log.Printf("Warning: Error closing old index: %v", err)
			}
		}(*old)
	}

	return idx.DocCount()
}

// DocCount returns the number of indexed records, or 0 before initialization
func (b *LocalBackend) DocCount() (uint64, error) {
	ptr := b.current.Load()
	if ptr == nil {
		return 0, nil
	}
	return (*ptr).DocCount()
}

// Close releases the index after in-flight searches finish
func (b *LocalBackend) Close() error {
	ptr := b.current.Swap(nil)
	if ptr == nil {
		return nil
	}
	b.inflight.Wait()
	return (*ptr).Close()
}

// Search runs a weighted match over title, tags, categories and content,
// then builds a snippet and highlights every matched term.
func (b *LocalBackend) Search(ctx context.Context, query string, opts Options) (ResultSet, error) {
	opts = opts.WithDefaults()
	if err := b.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	b.inflight.Add(1)
	defer b.inflight.Done()

	ptr := b.current.Load()
	if ptr == nil {
		return nil, errors.New("index closed")
	}

	res, err := (*ptr).SearchInContext(ctx, newWeightedRequest(query, opts.MaxResultLength*candidateFactor))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hl := NewHighlighter(opts.HighlightTag)
	results := make(ResultSet, 0, opts.MaxResultLength)
	seen := make(map[string]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		uri := stringField(hit.Fields, indexing.FieldURI)
		if _, dup := seen[uri]; dup || uri == "" {
			continue
		}
		seen[uri] = struct{}{}

		content := stringField(hit.Fields, indexing.FieldContent)
		terms := matchedTerms(hit.Locations)
		snippet := ExtractSnippet(content, earliestOffset(hit.Locations[indexing.FieldContent], content), opts.SnippetLength)

		results = append(results, MatchResult{
			URI:     uri,
			Title:   hl.Highlight(html.EscapeString(stringField(hit.Fields, indexing.FieldTitle)), terms),
			Date:    stringField(hit.Fields, indexing.FieldDate),
			Context: hl.Highlight(html.EscapeString(snippet), terms),
		})
		if len(results) == opts.MaxResultLength {
			break
		}
	}
	return results, nil
}

// newWeightedRequest ORs one match query per searchable field, boosted by field weight
func newWeightedRequest(text string, size int) *bleve.SearchRequest {
	q := bleve.NewDisjunctionQuery()
	for _, field := range indexing.SearchableFields {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.SetBoost(indexing.FieldBoost(field))
		q.AddQuery(mq)
	}

	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{indexing.FieldTitle, indexing.FieldContent, indexing.FieldURI, indexing.FieldDate}
	req.IncludeLocations = true
	return req
}

// matchedTerms collects the distinct terms that matched in any field
func matchedTerms(locations blevesearch.FieldTermLocationMap) []string {
	set := make(map[string]struct{})
	for _, terms := range locations {
		for term := range terms {
			set[term] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for term := range set {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// earliestOffset returns the smallest match start in content, in characters.
// Content without matches reports 0.
func earliestOffset(terms blevesearch.TermLocationMap, content string) int {
	first := -1
	for _, locations := range terms {
		for _, loc := range locations {
			if loc == nil {
				continue
			}
			if start := int(loc.Start); first < 0 || start < first {
				first = start
			}
		}
	}
	if first <= 0 {
		return 0
	}
	if first > len(content) {
		first = len(content)
	}
	return utf8.RuneCountInString(content[:first])
}

// stringField reads a stored field; multi-valued fields yield their first value
func stringField(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
