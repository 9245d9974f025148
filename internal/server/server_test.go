package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/config"
)

const indexJSON = `[
  {"objectID": "1", "title": "Install Hugo", "content": "To install Hugo, download the binary.", "uri": "/posts/install/"},
  {"objectID": "2", "title": "Themes", "content": "Pick a theme and install it as a module.", "uri": "/posts/themes/"}
]`

const themeJS = "line one\nline two\nline three\nline four\n"

// newTestServer serves the API with GitHub and raw content faked by one
// upstream server
func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	upstream := http.NewServeMux()
	upstream.HandleFunc("/repos/dillonzq/LoveIt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"html_url": "https://github.com/dillonzq/LoveIt", "description": "A clean theme", "name": "LoveIt",
			"owner": {"login": "dillonzq"}, "stargazers_count": 2900, "forks": 1100, "language": "JavaScript"}`))
	})
	upstream.HandleFunc("/colors.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"JavaScript": {"color": "#f1e05a", "url": "https://github.com/trending?l=JavaScript"}}`))
	})
	upstream.HandleFunc("/raw/dillonzq/LoveIt/master/src/theme.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(themeJS))
	})
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	root := t.TempDir()
	indexPath := filepath.Join(root, "index.json")
	if err := os.WriteFile(indexPath, []byte(indexJSON), 0644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Search.Index = indexPath
	cfg.RepoCard.APIBase = up.URL
	cfg.RepoCard.ColorsURL = up.URL + "/colors.json"
	cfg.Code.RawBase = up.URL + "/raw"
	cfg.Preference.Path = filepath.Join(root, "prefs.yaml")
	if mutate != nil {
		mutate(cfg)
	}

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(New(a).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode %s: %v", url, err)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	var health healthResponse
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &health)
	if health.Status != "ok" || health.Backend != "local" {
		t.Errorf("Unexpected health: %+v", health)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, nil)

	var resp searchResponse
	getJSON(t, srv.URL+"/api/search?q=install", http.StatusOK, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %+v", resp.Results)
	}
	if resp.Results[0].Title != "<em>Install</em> Hugo" {
		t.Errorf("Title = %q", resp.Results[0].Title)
	}

	getJSON(t, srv.URL+"/api/search?q=", http.StatusOK, &resp)
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("Blank query should give an empty list, got %#v", resp.Results)
	}
}

func TestSearch_BackendFailure(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Search.Index = filepath.Join(t.TempDir(), "missing.json")
	})

	var resp searchResponse
	getJSON(t, srv.URL+"/api/search?q=install", http.StatusOK, &resp)
	if len(resp.Results) != 0 {
		t.Errorf("Failed backend should give no results, got %+v", resp.Results)
	}
}

func TestRepo(t *testing.T) {
	srv := newTestServer(t, nil)

	var resp repoResponse
	getJSON(t, srv.URL+"/api/repo/dillonzq/LoveIt", http.StatusOK, &resp)
	if resp.Card.Fallback || resp.Card.Repo.Stars != 2900 {
		t.Errorf("Unexpected card: %+v", resp.Card)
	}
	if resp.Card.LanguageColor != "#f1e05a" {
		t.Errorf("LanguageColor = %q", resp.Card.LanguageColor)
	}
	if !strings.Contains(string(resp.HTML), "A clean theme") {
		t.Errorf("Rendered card missing description: %s", resp.HTML)
	}

	getJSON(t, srv.URL+"/api/repo/gone/missing", http.StatusOK, &resp)
	if !resp.Card.Fallback || resp.Card.Repo.HTMLURL != "https://github.com/gone/missing" {
		t.Errorf("Expected fallback card, got %+v", resp.Card)
	}
}

func TestEmbed(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Code.EmbedAllow = []string{"dillonzq/LoveIt/src/**"}
	})

	var embed struct {
		Label     string `json:"label"`
		FileURL   string `json:"file_url"`
		OK        bool   `json:"ok"`
		Code      string `json:"code"`
		StartLine int    `json:"start_line"`
		HTML      string `json:"html"`
	}
	getJSON(t, srv.URL+"/api/embed?user=dillonzq&repo=LoveIt&path=src/theme.js&start=2&end=3", http.StatusOK, &embed)
	if !embed.OK || embed.Code != "line two\nline three" || embed.StartLine != 2 {
		t.Errorf("Unexpected embed: %+v", embed)
	}
	if !strings.HasSuffix(embed.FileURL, "#L2-L3") {
		t.Errorf("FileURL = %s", embed.FileURL)
	}
	if embed.HTML == "" {
		t.Error("Expected highlighted HTML")
	}

	getJSON(t, srv.URL+"/api/embed?user=dillonzq&repo=LoveIt&path=src/missing.js", http.StatusOK, &embed)
	if embed.OK || embed.Code != "404 - Not Found" {
		t.Errorf("Expected failure text, got %+v", embed)
	}

	getJSON(t, srv.URL+"/api/embed?user=dillonzq&repo=LoveIt", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/embed?user=other&repo=x&path=a.go", http.StatusForbidden, nil)
}

func TestOutline(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{
		"html": "<nav id=\"TableOfContents\"><ul><li><a href=\"#a\">A</a></li><li><a href=\"#b\">B</a></li></ul></nav><h1>Title</h1><h2 id=\"a\">A</h2><h2 id=\"b\">B</h2>",
		"width": 1200,
		"minPanelTop": 200,
		"frame": {"scrollTop": 900, "headingTops": [-800, -200, 300], "footerTop": 4000, "panelHeight": 200}
	}`
	resp, err := http.Post(srv.URL+"/api/outline", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}

	var result app.OutlineResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if result.State.ActiveHeading != 1 || result.State.ActiveEntry != 0 {
		t.Errorf("Active heading/entry = %d/%d, want 1/0", result.State.ActiveHeading, result.State.ActiveEntry)
	}

	bad, err := http.Post(srv.URL+"/api/outline", "application/json", strings.NewReader(`{"width": 1200}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("Missing html: status %d, want 400", bad.StatusCode)
	}
}

func TestThemeToggle(t *testing.T) {
	srv := newTestServer(t, nil)

	var theme themeResponse
	getJSON(t, srv.URL+"/api/theme", http.StatusOK, &theme)
	if theme.Theme != "light" {
		t.Errorf("Default theme = %s, want light", theme.Theme)
	}

	resp, err := http.Post(srv.URL+"/api/theme/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&theme); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if theme.Theme != "dark" {
		t.Errorf("Toggled theme = %s, want dark", theme.Theme)
	}
}

func TestSearchSocket(t *testing.T) {
	srv := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/search/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() socketResponse {
		t.Helper()
		var resp socketResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		return resp
	}

	if err := conn.WriteJSON(socketRequest{Seq: 5, Query: "install"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if resp := read(); resp.Seq != 5 || len(resp.Results) != 2 {
		t.Fatalf("Unexpected response: %+v", resp)
	}

	// An older sequence number is stale and gets no reply
	if err := conn.WriteJSON(socketRequest{Seq: 4, Query: "themes"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if err := conn.WriteJSON(socketRequest{Seq: 6, Query: "themes"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if resp := read(); resp.Seq != 6 || len(resp.Results) != 1 || resp.Results[0].URI != "/posts/themes/" {
		t.Errorf("Expected reply to seq 6 only, got %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	if resp := read(); resp.Error == "" {
		t.Errorf("Expected error reply, got %+v", resp)
	}
}

const outlineHTML = `<nav id="TableOfContents"><ul><li><a href="#a">A</a></li><li><a href="#b">B</a></li></ul></nav><h1>Title</h1><h2 id="a">A</h2><h2 id="b">B</h2>`

func TestOutlineSocket(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Outline.ResizeDebounce = 50 * time.Millisecond
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/outline/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	write := func(msg string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}
	read := func() outlineReply {
		t.Helper()
		var reply outlineReply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		return reply
	}

	write(`{"type": "scroll"}`)
	if reply := read(); reply.Type != outlineError {
		t.Fatalf("Expected error before init, got %+v", reply)
	}

	initMsg, _ := json.Marshal(map[string]any{"type": "init", "html": outlineHTML, "width": 1200, "minPanelTop": 200})
	write(string(initMsg))
	ready := read()
	if ready.Type != outlineReady || ready.Static || ready.Mobile || ready.Theme != "light" {
		t.Fatalf("Unexpected ready reply: %+v", ready)
	}

	write(`{"type": "scroll", "frame": {"scrollTop": 900, "headingTops": [-800, -200, 300], "footerTop": 4000, "panelHeight": 200}}`)
	state := read()
	if state.Type != outlineState || state.State == nil {
		t.Fatalf("Expected state reply, got %+v", state)
	}
	if state.State.ActiveHeading != 1 || state.State.ActiveEntry != 0 || len(state.Markers) != 3 {
		t.Errorf("Unexpected state: %+v markers=%d", state.State, len(state.Markers))
	}

	write(`{"type": "scroll", "frame": {"headingTops": [-800, -200]}}`)
	if reply := read(); reply.Type != outlineError || !strings.Contains(reply.Error, "heading positions") {
		t.Errorf("Expected mismatch error, got %+v", reply)
	}

	// A burst of resizes settles into one layout reply
	write(`{"type": "resize", "width": 1000}`)
	write(`{"type": "resize", "width": 600, "minPanelTop": 150}`)
	layout := read()
	if layout.Type != outlineLayout || !layout.Static || !layout.Mobile || layout.Layout.MinPanelTop != 150 {
		t.Fatalf("Unexpected layout reply: %+v", layout)
	}

	// A static outline ignores scrolling, so the next reply is the dismissal
	write(`{"type": "scroll", "frame": {"scrollTop": 100, "headingTops": [10, 300, 600]}}`)
	write(`{"type": "mask"}`)
	if reply := read(); reply.Type != outlineDismiss {
		t.Errorf("Expected dismiss, got %+v", reply)
	}

	resp, err := http.Post(srv.URL+"/api/theme/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if reply := read(); reply.Type != outlineTheme || reply.Theme != "dark" {
		t.Errorf("Expected theme change to dark, got %+v", reply)
	}
}

func TestSocketOrigin(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"https://*.example.com"}
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/search/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://docs.example.com"}})
	if err != nil {
		t.Fatalf("Allowed origin rejected: %v", err)
	}
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.test"}})
	if err == nil {
		t.Fatal("Expected disallowed origin to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for disallowed origin, got %+v", resp)
	}
}

func TestOriginMatches(t *testing.T) {
	tests := []struct {
		allowed string
		origin  string
		want    bool
	}{
		{"*", "https://anything.test", true},
		{"https://example.com", "https://EXAMPLE.com", true},
		{"https://example.com", "https://example.org", false},
		{"https://*.example.com", "https://docs.example.com", true},
		{"https://*.example.com", "https://example.com", false},
	}
	for _, tt := range tests {
		if got := originMatches(tt.allowed, tt.origin); got != tt.want {
			t.Errorf("originMatches(%q, %q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
		}
	}
}

func TestOutline_FrameMismatch(t *testing.T) {
	srv := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]any{
		"html":  outlineHTML,
		"width": 1200,
		"frame": map[string]any{"headingTops": []float64{-800, -200}},
	})
	resp, err := http.Post(srv.URL+"/api/outline", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}
