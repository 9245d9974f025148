// Package tools exposes sitekit operations as MCP tools.
package tools

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/app"
)

// Tools binds tool handlers to one App
type Tools struct {
	app *app.App
}

// New creates the tool set for a
func New(a *app.App) *Tools {
	return &Tools{app: a}
}

// Register adds every tool to server and returns how many were registered
func Register(server *mcp.Server, a *app.App) int {
	t := New(a)
	toolCount := 0

	toolCount += t.registerSearchTools(server)
	toolCount += t.registerCollaboratorTools(server)
	toolCount += t.registerOutlineTools(server)
	toolCount += t.registerFeatureTools(server)
	toolCount += t.registerRuntimeTools(server)
	toolCount += t.registerValidationTools(server)
	toolCount += t.registerGenerationTools(server)

	log.Printf("✓ All tools registered: %d tools (search + collaborators + outline + features + runtime + validation + generation)", toolCount)
	return toolCount
}

// isFilePath determines if a string is a file path rather than inline
// content: markup, JSON, YAML and TOML documents all span lines or start
// with a structural character
func isFilePath(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.Contains(trimmed, "\n") {
		return false
	}
	if strings.ContainsAny(trimmed[:1], "{[<") {
		return false
	}

	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, "../") {
		return true
	}
	// Windows absolute path (C:\, D:\, etc.)
	if len(trimmed) >= 3 && trimmed[1] == ':' && (trimmed[2] == '\\' || trimmed[2] == '/') {
		return true
	}

	for _, ext := range []string{".html", ".htm", ".json", ".yaml", ".yml", ".toml"} {
		if strings.HasSuffix(strings.ToLower(trimmed), ext) && !strings.Contains(trimmed, " ") {
			return true
		}
	}
	return false
}

// readContent returns s itself, or the file it names
func readContent(s string) (string, error) {
	if !isFilePath(s) {
		return s, nil
	}
	content, err := os.ReadFile(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("failed to read file '%s': %w", s, err)
	}
	return string(content), nil
}
