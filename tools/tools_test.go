package tools

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/config"
)

const indexJSON = `[
  {"objectID": "1", "title": "Install Hugo", "content": "To install Hugo, download the binary.", "uri": "/posts/install/"},
  {"objectID": "2", "title": "Themes", "content": "Pick a theme and install it as a module.", "uri": "/posts/themes/"},
  {"objectID": "3", "title": "Install Hugo", "content": "Second section of the install page.", "uri": "/posts/install/"}
]`

const sourceFile = "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

// newTestTools builds tools over an App whose index lives in a temp dir and
// whose GitHub and raw content are served by a local upstream
func newTestTools(t *testing.T, mutate func(*config.Config)) *Tools {
	t.Helper()

	upstream := http.NewServeMux()
	upstream.HandleFunc("/repos/dillonzq/LoveIt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"html_url": "https://github.com/dillonzq/LoveIt", "description": "A clean theme", "name": "LoveIt",
			"owner": {"login": "dillonzq"}, "stargazers_count": 2900, "forks": 1100, "language": "JavaScript"}`))
	})
	upstream.HandleFunc("/colors.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"JavaScript": {"color": "#f1e05a", "url": "https://github.com/trending?l=JavaScript"}}`))
	})
	upstream.HandleFunc("/raw/sitekit/demo/master/main.go", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourceFile))
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
	return New(a)
}

func TestRegister(t *testing.T) {
	a, err := app.New(config.DefaultConfig())
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	server := mcp.NewServer(&mcp.Implementation{Name: "sitekit-test", Version: "test"}, nil)

	if count := Register(server, a); count != 11 {
		t.Errorf("Register() = %d tools, want 11", count)
	}
}

func TestIsFilePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"absolute path", "/srv/site/config.toml", true},
		{"relative path", "./public/posts/index.html", true},
		{"parent path", "../sitekit.yaml", true},
		{"windows path", `C:\site\config.toml`, true},
		{"bare file name", "sitekit.yml", true},
		{"html content", "<html><body></body></html>", false},
		{"json content", `{"search": {"enable": true}}`, false},
		{"toml table", "[params]", false},
		{"multi-line yaml", "search:\n  enable: true", false},
		{"file name with spaces", "my config.yaml", false},
		{"empty", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFilePath(tt.input); got != tt.expected {
				t.Errorf("isFilePath(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestReadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<p>hi</p>"), 0644); err != nil {
		t.Fatalf("Failed to write page: %v", err)
	}

	content, err := readContent(path)
	if err != nil || content != "<p>hi</p>" {
		t.Errorf("readContent(file) = %q, %v", content, err)
	}

	content, err = readContent("<p>inline</p>")
	if err != nil || content != "<p>inline</p>" {
		t.Errorf("readContent(inline) = %q, %v", content, err)
	}

	if _, err := readContent(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("Expected error for missing file")
	}
}
