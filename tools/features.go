package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/features"
	"github.com/sitekit/sitekit/internal/widgets"
)

// DetectPageFeaturesInput defines input for detect_page_features tool
type DetectPageFeaturesInput struct {
	Page string `json:"page" jsonschema:"Rendered page HTML or a path to an .html file"`
}

// CodeBlockInfo is a detected code block with its initial fold state
type CodeBlockInfo struct {
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
	Open     bool   `json:"open"`
}

// DetectPageFeaturesOutput defines output for detect_page_features tool
type DetectPageFeaturesOutput struct {
	Widgets    []string            `json:"widgets"`
	CodeBlocks []CodeBlockInfo     `json:"code_blocks"`
	RepoCards  []string            `json:"repo_cards"`
	CodeEmbeds []map[string]string `json:"code_embeds"`
}

// DetectPageFeatures lists the widgets a rendered page needs
func (t *Tools) DetectPageFeatures(ctx context.Context, req *mcp.CallToolRequest, input DetectPageFeaturesInput) (*mcp.CallToolResult, DetectPageFeaturesOutput, error) {
	content, err := readContent(input.Page)
	if err != nil {
		return nil, DetectPageFeaturesOutput{}, err
	}

	found, err := features.Detect(strings.NewReader(content))
	if err != nil {
		return nil, DetectPageFeaturesOutput{}, fmt.Errorf("failed to parse page: %w", err)
	}

	output := DetectPageFeaturesOutput{
		Widgets:    found.Widgets(),
		CodeBlocks: make([]CodeBlockInfo, 0, len(found.CodeBlocks)),
		RepoCards:  found.RepoCards,
		CodeEmbeds: found.CodeEmbeds,
	}
	maxShown := t.app.Config.Code.MaxShownLines
	for _, block := range found.CodeBlocks {
		output.CodeBlocks = append(output.CodeBlocks, CodeBlockInfo{
			Language: block.Language,
			Lines:    block.Lines,
			Open:     widgets.OpenByDefault(block.Lines, maxShown),
		})
	}
	return nil, output, nil
}

// ListWidgetsInput defines input for list_widgets tool
type ListWidgetsInput struct{}

// WidgetInfo describes one widget and its initialisation status
type WidgetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Selector    string `json:"selector"`
	Status      string `json:"status"`
}

// ListWidgetsOutput defines output for list_widgets tool
type ListWidgetsOutput struct {
	Widgets []WidgetInfo `json:"widgets"`
	Count   int          `json:"count"`
}

// ListWidgets returns the widget catalog with each widget's status
func (t *Tools) ListWidgets(ctx context.Context, req *mcp.CallToolRequest, input ListWidgetsInput) (*mcp.CallToolResult, ListWidgetsOutput, error) {
	output := ListWidgetsOutput{Widgets: make([]WidgetInfo, 0, len(features.Catalog))}
	for _, f := range features.Catalog {
		output.Widgets = append(output.Widgets, WidgetInfo{
			Name:        f.Name,
			Description: f.Description,
			Selector:    f.Selector,
			Status:      string(t.app.Widgets.Status(f.Name)),
		})
	}
	output.Count = len(output.Widgets)
	return nil, output, nil
}

func (t *Tools) registerFeatureTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "detect_page_features",
			Description: "Scan a rendered page for the elements sitekit widgets attach to (search box, outline, theme switch, code blocks, repository cards, code embeds). Code blocks report whether they start unfolded.",
		},
		t.DetectPageFeatures,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_widgets",
			Description: "List the page widgets with the selector each attaches to and whether it initialised (pending, ready, skipped or failed).",
		},
		t.ListWidgets,
	)
	return 2
}
