package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/sitekit/sitekit/internal/indexing"
)

// mockIndex is an in-memory stand-in for a bleve index
type mockIndex struct {
	docCount    uint64
	searchError error
	closed      atomic.Bool
}

func newMockIndex(docCount uint64) *mockIndex {
	return &mockIndex{docCount: docCount}
}

func (m *mockIndex) SearchInContext(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	if m.searchError != nil {
		return nil, m.searchError
	}
	return &bleve.SearchResult{Request: req, Total: m.docCount}, nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Swap(true) {
		return fmt.Errorf("already closed")
	}
	return nil
}

// countingSource serves fixed records and counts loads
type countingSource struct {
	records []indexing.Record
	loads   atomic.Int32
	err     error
}

func (s *countingSource) Load(ctx context.Context) ([]indexing.Record, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *countingSource) String() string { return "test records" }

func sampleRecords() []indexing.Record {
	return []indexing.Record{
		{
			ID:      "install",
			Title:   "Install Hugo",
			Tags:    []string{"setup"},
			Content: "To install Hugo, download the binary.",
			URI:     "/posts/install/",
			Date:    "2024-01-02",
		},
		{
			ID:      "themes",
			Title:   "Themes",
			Content: "Pick a theme and configure the site.",
			URI:     "/posts/themes/",
		},
		{
			ID:      "deploy",
			Title:   "Deploy",
			Content: "Push the public directory to any static host.",
			URI:     "/posts/deploy/",
		},
	}
}

func TestLocalBackend_EndToEnd(t *testing.T) {
	backend := NewLocalBackend(&countingSource{records: sampleRecords()})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "install", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d: %+v", len(results), results)
	}

	got := results[0]
	if got.URI != "/posts/install/" {
		t.Errorf("URI = %q", got.URI)
	}
	if got.Title != "<em>Install</em> Hugo" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Context != "To <em>install</em> Hugo, download the binary." {
		t.Errorf("Context = %q", got.Context)
	}
	if got.Date != "2024-01-02" {
		t.Errorf("Date = %q", got.Date)
	}
}

func TestLocalBackend_TitleOutranksContent(t *testing.T) {
	records := []indexing.Record{
		{ID: "body", Title: "Notes", Content: "A note about the deploy step.", URI: "/body/"},
		{ID: "title", Title: "Deploy", Content: "Short page.", URI: "/title/"},
	}
	backend := NewLocalBackend(&countingSource{records: records})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "deploy", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].URI != "/title/" {
		t.Errorf("Expected title match first, got %s", results[0].URI)
	}
}

func TestLocalBackend_DuplicateURIs(t *testing.T) {
	records := []indexing.Record{
		{ID: "1", Title: "Install", Content: "install once", URI: "/same/"},
		{ID: "2", Title: "Install", Content: "install twice", URI: "/same/"},
		{ID: "3", Title: "Install elsewhere", Content: "install", URI: "/other/"},
	}
	backend := NewLocalBackend(&countingSource{records: records})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "install", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 unique results, got %d: %+v", len(results), results)
	}
}

func TestLocalBackend_MaxResultLength(t *testing.T) {
	records := make([]indexing.Record, 0, 30)
	for i := 0; i < 30; i++ {
		records = append(records, indexing.Record{
			ID:      fmt.Sprintf("p%d", i),
			Title:   fmt.Sprintf("Page %d", i),
			Content: "shared keyword here",
			URI:     fmt.Sprintf("/p/%d/", i),
		})
	}
	backend := NewLocalBackend(&countingSource{records: records})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "keyword", Options{MaxResultLength: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 results, got %d", len(results))
	}
}

func TestLocalBackend_SnippetFollowsMatch(t *testing.T) {
	content := strings.Repeat("filler text ", 20) + "the needle is here and then more words follow after it"
	backend := NewLocalBackend(&countingSource{records: []indexing.Record{
		{ID: "n", Title: "Haystack", Content: content, URI: "/n/"},
	}})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "needle", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	ctx := results[0].Context
	if !strings.HasPrefix(ctx, Ellipsis) {
		t.Errorf("Expected snippet to start with ellipsis, got %q", ctx)
	}
	if !strings.Contains(ctx, "<em>needle</em>") {
		t.Errorf("Expected highlighted needle in %q", ctx)
	}
}

func TestLocalBackend_EscapesMarkup(t *testing.T) {
	backend := NewLocalBackend(&countingSource{records: []indexing.Record{
		{ID: "x", Title: "Script <b>tags</b>", Content: "inline <script>alert(1)</script> script", URI: "/x/"},
	}})
	defer backend.Close()

	results, err := backend.Search(context.Background(), "script", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if strings.Contains(results[0].Context, "<script>") || strings.Contains(results[0].Title, "<b>") {
		t.Errorf("Markup from the corpus must be escaped: %+v", results[0])
	}
}

func TestLocalBackend_BuildsOnce(t *testing.T) {
	source := &countingSource{records: sampleRecords()}
	backend := NewLocalBackend(source)
	defer backend.Close()

	const numQueries = 20
	var wg sync.WaitGroup
	errChan := make(chan error, numQueries)
	for i := 0; i < numQueries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := backend.Search(context.Background(), "hugo", DefaultOptions()); err != nil {
				errChan <- err
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Error(err)
	}
	if loads := source.loads.Load(); loads != 1 {
		t.Errorf("Expected index to be built once, source loaded %d times", loads)
	}
}

func TestLocalBackend_LoadFailure(t *testing.T) {
	source := &countingSource{err: errors.New("missing index.json")}
	engine := NewEngine(NewLocalBackend(source), DefaultOptions())

	results, err := engine.QueryDetailed(context.Background(), "install")
	if err == nil {
		t.Error("Expected load failure to surface from QueryDetailed")
	}
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
	if got := engine.Query(context.Background(), "install"); len(got) != 0 {
		t.Errorf("Query should be empty on failure, got %d", len(got))
	}
}

func TestLocalBackend_SearchError(t *testing.T) {
	mock := newMockIndex(3)
	mock.searchError = errors.New("boom")
	backend := newLocalBackendWithIndex(mock)

	if _, err := backend.Search(context.Background(), "q", DefaultOptions()); err == nil {
		t.Error("Expected search error")
	}
}

func TestLocalBackend_Refresh(t *testing.T) {
	source := &countingSource{records: sampleRecords()}
	mock := newMockIndex(1)
	backend := newLocalBackendWithIndex(mock)
	backend.source = source

	count, err := backend.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if count != uint64(len(sampleRecords())) {
		t.Errorf("Expected %d docs after refresh, got %d", len(sampleRecords()), count)
	}

	// Old index closes in the background once in-flight searches drain
	backend.inflight.Wait()
	for i := 0; i < 100 && !mock.closed.Load(); i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if !mock.closed.Load() {
		t.Error("Old index should be closed after refresh")
	}

	results, err := backend.Search(context.Background(), "themes", DefaultOptions())
	if err != nil {
		t.Fatalf("Search after refresh failed: %v", err)
	}
	if len(results) != 1 || results[0].URI != "/posts/themes/" {
		t.Errorf("Unexpected results after refresh: %+v", results)
	}
	backend.Close()
}

func TestLocalBackend_PersistedIndex(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "index.bleve")

	idx, err := bleve.New(dir, indexing.NewIndexMapping(""))
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	if err := indexing.IndexRecords(idx, sampleRecords(), nil); err != nil {
		t.Fatalf("Failed to index records: %v", err)
	}
	idx.Close()

	if err := indexing.WriteVersion(filepath.Join(root, indexing.VersionFile)); err != nil {
		t.Fatalf("Failed to write version: %v", err)
	}

	// No source: only the persisted index can satisfy the query
	backend := NewLocalBackend(nil, WithPersistedIndex(dir))
	results, err := backend.Search(context.Background(), "deploy", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].URI != "/posts/deploy/" {
		t.Errorf("Unexpected results: %+v", results)
	}
	backend.Close()

	// A stale schema version forces an in-memory build from the source
	if err := os.WriteFile(filepath.Join(root, indexing.VersionFile), []byte("1\n"), 0644); err != nil {
		t.Fatalf("Failed to write version: %v", err)
	}
	source := &countingSource{records: sampleRecords()[:1]}
	backend = NewLocalBackend(source, WithPersistedIndex(dir))
	defer backend.Close()

	if _, err := backend.Search(context.Background(), "deploy", DefaultOptions()); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if source.loads.Load() != 1 {
		t.Errorf("Expected fallback build from source, got %d loads", source.loads.Load())
	}
	if count, _ := backend.DocCount(); count != 1 {
		t.Errorf("Expected in-memory index with 1 doc, got %d", count)
	}
}

// stagedSource blocks its first load until released; later loads return
// the full record set immediately
type stagedSource struct {
	started chan struct{}
	release chan struct{}
	loads   atomic.Int32
}

func (s *stagedSource) Load(ctx context.Context) ([]indexing.Record, error) {
	if s.loads.Add(1) == 1 {
		close(s.started)
		<-s.release
		return sampleRecords()[:1], nil
	}
	return sampleRecords(), nil
}

func (s *stagedSource) String() string { return "staged records" }

func TestLocalBackend_RefreshDuringFirstBuild(t *testing.T) {
	source := &stagedSource{started: make(chan struct{}), release: make(chan struct{})}
	backend := NewLocalBackend(source)
	defer backend.Close()

	done := make(chan error, 1)
	go func() { done <- backend.EnsureInitialized(context.Background()) }()
	<-source.started

	refreshed, err := backend.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	close(source.release)
	if err := <-done; err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}

	count, err := backend.DocCount()
	if err != nil {
		t.Fatalf("DocCount failed: %v", err)
	}
	if count != refreshed || count != uint64(len(sampleRecords())) {
		t.Errorf("DocCount() = %d, want the refreshed %d", count, refreshed)
	}
}
