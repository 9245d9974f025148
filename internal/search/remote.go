package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// remoteTimeout bounds one hosted search round-trip
const remoteTimeout = 10 * time.Second

// RemoteConfig identifies a hosted Algolia-compatible index
type RemoteConfig struct {
	AppID     string
	SearchKey string
	IndexName string

	// Host overrides the default https://<app>-dsn.algolia.net endpoint
	Host string

	// HTTPClient overrides the default client
	HTTPClient *http.Client
}

// RemoteBackend delegates ranking, snippeting and highlighting to a hosted
// search service and only de-duplicates and truncates locally.
type RemoteBackend struct {
	cfg RemoteConfig

	once   sync.Once
	client *remoteClient
	err    error
}

// NewRemoteBackend creates a backend; the HTTP client is created on first use
func NewRemoteBackend(cfg RemoteConfig) *RemoteBackend {
	return &RemoteBackend{cfg: cfg}
}

func (b *RemoteBackend) Name() string { return "algolia" }

// remoteClient is the per-session handle to the hosted index
type remoteClient struct {
	http     *http.Client
	endpoint string
	appID    string
	key      string
}

// EnsureInitialized creates the client handle once
func (b *RemoteBackend) EnsureInitialized() error {
	b.once.Do(func() {
		if b.cfg.AppID == "" || b.cfg.SearchKey == "" || b.cfg.IndexName == "" {
			b.err = errors.New("algolia app id, search key and index are required")
			return
		}

		host := strings.TrimRight(b.cfg.Host, "/")
		if host == "" {
			host = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(b.cfg.AppID))
		}
		httpClient := b.cfg.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: remoteTimeout}
		}

		b.client = &remoteClient{
			http:     httpClient,
			endpoint: fmt.Sprintf("%s/1/indexes/%s/query", host, url.PathEscape(b.cfg.IndexName)),
			appID:    b.cfg.AppID,
			key:      b.cfg.SearchKey,
		}
	})
	return b.err
}

// remoteHit is the subset of a hosted hit the theme renders
type remoteHit struct {
	URI       string `json:"uri"`
	Date      string `json:"date"`
	Highlight struct {
		Title struct {
			Value string `json:"value"`
		} `json:"title"`
	} `json:"_highlightResult"`
	Snippet struct {
		Content struct {
			Value string `json:"value"`
		} `json:"content"`
	} `json:"_snippetResult"`
}

type remoteResponse struct {
	Hits []remoteHit `json:"hits"`
}

// Search asks for MaxResultLength*8 candidates so duplicates of the same
// page can be collapsed. Between duplicates the shorter snippet is kept.
func (b *RemoteBackend) Search(ctx context.Context, query string, opts Options) (ResultSet, error) {
	opts = opts.WithDefaults()
	if err := b.EnsureInitialized(); err != nil {
		return nil, err
	}

	hits, err := b.client.query(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	policy := bluemonday.NewPolicy()
	policy.AllowElements(opts.HighlightTag)

	results := make(ResultSet, 0, len(hits))
	for _, hit := range hits {
		if hit.URI == "" {
			continue
		}
		results = append(results, MatchResult{
			URI:     hit.URI,
			Title:   policy.Sanitize(hit.Highlight.Title.Value),
			Date:    hit.Date,
			Context: policy.Sanitize(hit.Snippet.Content.Value),
		})
	}

	return Truncate(ShorterSnippetWins(results), opts.MaxResultLength), nil
}

func (c *remoteClient) query(ctx context.Context, text string, opts Options) ([]remoteHit, error) {
	params := url.Values{}
	params.Set("query", text)
	params.Set("offset", "0")
	params.Set("length", strconv.Itoa(opts.MaxResultLength*candidateFactor))
	params.Set("attributesToHighlight", `["title"]`)
	params.Set("attributesToSnippet", fmt.Sprintf(`["content:%d"]`, opts.SnippetLength))
	params.Set("highlightPreTag", "<"+opts.HighlightTag+">")
	params.Set("highlightPostTag", "</"+opts.HighlightTag+">")

	body, err := json.Marshal(map[string]string{"params": params.Encode()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-Application-Id", c.appID)
	req.Header.Set("X-Algolia-API-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hosted search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hosted search failed with status: %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid hosted search response: %w", err)
	}
	return out.Hits, nil
}
