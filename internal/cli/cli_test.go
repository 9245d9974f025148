package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args and returns its stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgFile = ""
		searchLimit = 0
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	index := filepath.Join(root, "index.json")
	records := `[
  {"objectID": "1", "title": "Install Hugo", "content": "To install Hugo, download the binary.", "uri": "/posts/install/", "date": "2024-01-02"},
  {"objectID": "2", "title": "Themes", "content": "Pick a theme &amp; install it.", "uri": "/posts/themes/"}
]`
	if err := os.WriteFile(index, []byte(records), 0644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	cfg := filepath.Join(root, "sitekit.yaml")
	doc := "search:\n  index: " + index + "\npreference:\n  path: " + filepath.Join(root, "prefs.yaml") + "\n"
	if err := os.WriteFile(cfg, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return cfg
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "sitekit version "+Version) {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestSearchCommand(t *testing.T) {
	cfg := writeSite(t)

	out, err := run(t, "--config", cfg, "search", "install")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "Install Hugo") || !strings.Contains(out, "/posts/install/") {
		t.Errorf("Missing first result:\n%s", out)
	}
	if strings.Contains(out, "<em>") {
		t.Errorf("Highlight markup should be rendered, got:\n%s", out)
	}

	out, err = run(t, "--config", cfg, "search", "--limit", "1", "install")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if strings.Contains(out, " 2.") {
		t.Errorf("--limit 1 printed more than one result:\n%s", out)
	}
}

func TestThemeCommand(t *testing.T) {
	cfg := writeSite(t)

	out, err := run(t, "--config", cfg, "theme", "toggle")
	if err != nil {
		t.Fatalf("theme toggle failed: %v", err)
	}
	if !strings.HasPrefix(out, "dark") {
		t.Errorf("Expected dark after toggle, got %q", out)
	}

	out, err = run(t, "--config", cfg, "theme")
	if err != nil {
		t.Fatalf("theme failed: %v", err)
	}
	if !strings.HasPrefix(out, "dark") {
		t.Errorf("Toggle was not persisted, got %q", out)
	}
}

func TestMissingConfig(t *testing.T) {
	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "doctor"); err == nil {
		t.Error("Expected error for a missing --config file")
	}
}

func TestRenderHighlighted(t *testing.T) {
	got := renderHighlighted("Pick a <em>theme</em> &amp; <b>go</i>")
	if strings.Contains(got, "<em>") || !strings.Contains(got, "theme") || !strings.Contains(got, "&") {
		t.Errorf("renderHighlighted() = %q", got)
	}
	if !strings.Contains(got, "<b>go</i>") {
		t.Errorf("Mismatched tags should be left alone, got %q", got)
	}
}
