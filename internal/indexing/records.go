package indexing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// fetchTimeout bounds a single index.json download
const fetchTimeout = 30 * time.Second

// Source loads the record corpus. Implementations must be safe to call more
// than once; callers decide how often that happens.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
	String() string
}

// NewSource returns an HTTP source for http(s) locations and a file source
// for everything else.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location}
	}
	return &FileSource{Path: location}
}

// FileSource reads index.json from disk
type FileSource struct {
	Path string
}

func (s *FileSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index data: %w", err)
	}
	defer f.Close()

	return DecodeRecords(f)
}

func (s *FileSource) String() string { return s.Path }

// HTTPSource downloads index.json from the published site
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Load(ctx context.Context) ([]Record, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	return DecodeRecords(resp.Body)
}

func (s *HTTPSource) String() string { return s.URL }

// DecodeRecords parses a JSON array of records and normalizes each one.
// Records without a uri cannot be linked to and are dropped.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var raw []Record
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid index data: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for _, rec := range raw {
		rec = Normalize(rec)
		if rec.URI == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
