// Package repocard loads repository metadata and renders repository cards.
// Failures never surface to the page: a card built from the identifier
// alone is returned instead.
package repocard

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 256
	defaultCacheTTL  = time.Hour
)

// Client fetches repository metadata and language colors. Successful
// lookups are cached; concurrent lookups of the same repository share one
// request.
type Client struct {
	apiBase   string
	htmlBase  string
	colorsURL string
	token     string
	http      *http.Client

	cache *expirable.LRU[string, Repo]
	group singleflight.Group

	colorsMu     sync.Mutex
	colorsLoaded bool
	colors       map[string]Language

	sanitizer *bluemonday.Policy
}

// Option configures a Client
type Option func(*Client)

// WithAPIBase overrides the metadata API base URL
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithColorsURL overrides the language colors resource
func WithColorsURL(url string) Option {
	return func(c *Client) { c.colorsURL = url }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken authenticates metadata requests
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCache sets the cache size and entry lifetime
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size > 0 {
			c.cache = expirable.NewLRU[string, Repo](size, nil, ttl)
		}
	}
}

// NewClient creates a client with GitHub defaults
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:   DefaultAPIBase,
		htmlBase:  DefaultHTMLBase,
		colorsURL: DefaultColorsURL,
		http:      &http.Client{Timeout: defaultTimeout},
		sanitizer: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = expirable.NewLRU[string, Repo](defaultCacheSize, nil, defaultCacheTTL)
	}
	return c
}

// SplitID splits "owner/repo". Anything after a second slash is ignored.
func SplitID(id string) (owner, name string, err error) {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository id %q: expected owner/repo", id)
	}
	return parts[0], parts[1], nil
}

// Card returns the card for id, falling back to a synthesized record when
// the metadata cannot be loaded.
func (c *Client) Card(ctx context.Context, id string) Card {
	repo, err := c.Repo(ctx, id)
	fallback := false
	if err != nil {
		log.Printf("Warning: Failed to load repository info for %s, using fallback: %v", id, err)
		repo = c.fallback(id)
		fallback = true
	}

	card := Card{ID: id, Repo: repo, Fallback: fallback}
	if repo.Language != "" {
		card.LanguageColor = c.Color(ctx, repo.Language)
	}
	return card
}

// Repo fetches metadata for id, from cache when possible
func (c *Client) Repo(ctx context.Context, id string) (Repo, error) {
	owner, name, err := SplitID(id)
	if err != nil {
		return Repo{}, err
	}
	key := owner + "/" + name

	if repo, ok := c.cache.Get(key); ok {
		return repo, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		repo, err := c.fetchRepo(ctx, key)
		if err != nil {
			return Repo{}, err
		}
		c.cache.Add(key, repo)
		return repo, nil
	})
	if err != nil {
		return Repo{}, err
	}
	return v.(Repo), nil
}

func (c *Client) fetchRepo(ctx context.Context, key string) (Repo, error) {
	var repo Repo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s", c.apiBase, key), true, &repo); err != nil {
		return Repo{}, err
	}
	// Strip markup but keep entities decoded; the card template escapes again
	repo.Description = html.UnescapeString(c.sanitizer.Sanitize(repo.Description))
	return repo, nil
}

// fallback synthesizes a record from the identifier alone
func (c *Client) fallback(id string) Repo {
	owner, name := id, ""
	if i := strings.IndexByte(id, '/'); i >= 0 {
		owner, name = id[:i], id[i+1:]
		if j := strings.IndexByte(name, '/'); j >= 0 {
			name = name[:j]
		}
	}
	return Repo{
		HTMLURL:     fmt.Sprintf("%s/%s", c.htmlBase, id),
		Description: FallbackDescription,
		Name:        name,
		Owner:       Owner{Login: owner},
		Language:    UnknownLanguage,
	}
}

// Color returns the color of language, or the Unknown color
func (c *Client) Color(ctx context.Context, language string) string {
	colors := c.Colors(ctx)
	if l, ok := colors[language]; ok && l.Color != "" {
		return l.Color
	}
	return colors[UnknownLanguage].Color
}

// Colors loads the language colors resource. A failed load returns only the
// Unknown entry and is retried on the next call. The fetch outlives a
// cancelled caller context but is bounded by its own timeout.
func (c *Client) Colors(ctx context.Context) map[string]Language {
	c.colorsMu.Lock()
	defer c.colorsMu.Unlock()
	if c.colorsLoaded {
		return c.colors
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
	defer cancel()

	colors := make(map[string]Language)
	if err := c.getJSON(fetchCtx, c.colorsURL, false, &colors); err != nil {
		log.Printf("Warning: Failed to load language colors: %v", err)
		return map[string]Language{UnknownLanguage: c.unknownLanguage()}
	}
	colors[UnknownLanguage] = c.unknownLanguage()
	c.colors = colors
	c.colorsLoaded = true
	return c.colors
}

func (c *Client) unknownLanguage() Language {
	return Language{Color: UnknownColor, URL: c.htmlBase + "/"}
}

func (c *Client) getJSON(ctx context.Context, url string, api bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if api {
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("got response %d from the API while fetching %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", url, err)
	}
	return nil
}
