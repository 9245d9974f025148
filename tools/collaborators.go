package tools

import (
	"context"
	"fmt"
	"html/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/codeembed"
	"github.com/sitekit/sitekit/internal/preference"
	"github.com/sitekit/sitekit/internal/repocard"
)

// RenderRepoCardInput defines input for render_repo_card tool
type RenderRepoCardInput struct {
	Repo string `json:"repo" jsonschema:"Repository id as owner/name"`
}

// RenderRepoCardOutput defines output for render_repo_card tool
type RenderRepoCardOutput struct {
	Card repocard.Card `json:"card"`
	HTML template.HTML `json:"html"`
}

// RenderRepoCard fetches repository metadata and renders its card. When the
// metadata cannot be loaded the card falls back to the id alone.
func (t *Tools) RenderRepoCard(ctx context.Context, req *mcp.CallToolRequest, input RenderRepoCardInput) (*mcp.CallToolResult, RenderRepoCardOutput, error) {
	if _, _, err := repocard.SplitID(input.Repo); err != nil {
		return nil, RenderRepoCardOutput{}, err
	}

	card := t.app.Repos.Card(ctx, input.Repo)
	markup, err := repocard.Render(card)
	if err != nil {
		return nil, RenderRepoCardOutput{}, fmt.Errorf("failed to render card: %w", err)
	}
	return nil, RenderRepoCardOutput{Card: card, HTML: markup}, nil
}

// RenderCodeEmbedInput defines input for render_code_embed tool
type RenderCodeEmbedInput struct {
	User      string `json:"user" jsonschema:"Repository owner"`
	Repo      string `json:"repo" jsonschema:"Repository name"`
	Branch    string `json:"branch,omitempty" jsonschema:"Branch, tag or commit id (optional, defaults to master)"`
	Path      string `json:"path" jsonschema:"File path inside the repository"`
	LineStart string `json:"line_start,omitempty" jsonschema:"First line to show, 1-indexed (optional)"`
	LineEnd   string `json:"line_end,omitempty" jsonschema:"Last line to show, inclusive (optional)"`
	TabSize   string `json:"tab_size,omitempty" jsonschema:"Tab width (optional, defaults to 4)"`
	Theme     string `json:"theme,omitempty" jsonschema:"light or dark (optional, defaults to the saved preference)"`
}

// RenderCodeEmbedOutput defines output for render_code_embed tool
type RenderCodeEmbedOutput struct {
	Embed codeembed.Embed `json:"embed"`
}

// RenderCodeEmbed fetches a file and renders the requested line window
func (t *Tools) RenderCodeEmbed(ctx context.Context, req *mcp.CallToolRequest, input RenderCodeEmbedInput) (*mcp.CallToolResult, RenderCodeEmbedOutput, error) {
	spec, err := codeembed.ParseAttributes(map[string]string{
		"user":       input.User,
		"repo":       input.Repo,
		"branch":     input.Branch,
		"filepath":   input.Path,
		"line-start": input.LineStart,
		"line-end":   input.LineEnd,
		"tabsize":    input.TabSize,
	})
	if err != nil {
		return nil, RenderCodeEmbedOutput{}, err
	}

	theme := input.Theme
	if theme == "" {
		theme = t.app.Preference.Theme()
	}

	embed, err := t.app.Embedder.Render(ctx, spec, theme)
	if err != nil {
		return nil, RenderCodeEmbedOutput{}, err
	}
	return nil, RenderCodeEmbedOutput{Embed: *embed}, nil
}

// ThemePreferenceInput defines input for theme_preference tool
type ThemePreferenceInput struct {
	Action string `json:"action,omitempty" jsonschema:"get (default), toggle, light or dark"`
}

// ThemePreferenceOutput defines output for theme_preference tool
type ThemePreferenceOutput struct {
	Theme   string `json:"theme"`
	Changed bool   `json:"changed"`
}

// ThemePreference reads or changes the saved light/dark preference
func (t *Tools) ThemePreference(ctx context.Context, req *mcp.CallToolRequest, input ThemePreferenceInput) (*mcp.CallToolResult, ThemePreferenceOutput, error) {
	store := t.app.Preference
	before := store.Theme()

	switch input.Action {
	case "", "get":
		return nil, ThemePreferenceOutput{Theme: before}, nil
	case "toggle":
		theme, err := store.Toggle()
		if err != nil {
			return nil, ThemePreferenceOutput{}, fmt.Errorf("failed to save preference: %w", err)
		}
		return nil, ThemePreferenceOutput{Theme: theme, Changed: true}, nil
	case preference.Light, preference.Dark:
		if err := store.Set(input.Action); err != nil {
			return nil, ThemePreferenceOutput{}, fmt.Errorf("failed to save preference: %w", err)
		}
		return nil, ThemePreferenceOutput{Theme: input.Action, Changed: input.Action != before}, nil
	default:
		return nil, ThemePreferenceOutput{}, fmt.Errorf("unknown action '%s' (expected get, toggle, light or dark)", input.Action)
	}
}

func (t *Tools) registerCollaboratorTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "render_repo_card",
			Description: "Render a repository card (description, language with its color, stars, forks, fork source). Falls back to a card built from the id alone when the metadata API fails.",
		},
		t.RenderRepoCard,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "render_code_embed",
			Description: "Fetch a file from a repository and render a highlighted embed of an optional line window, with the label and link the page widget shows. Failed fetches render '<status> - <text>' as plain text.",
		},
		t.RenderCodeEmbed,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "theme_preference",
			Description: "Get, toggle or set the reader's saved light/dark theme. Changes are persisted and announced to the other widgets.",
		},
		t.ThemePreference,
	)

	return 3
}
