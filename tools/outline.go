package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/outline"
)

// ComputeOutlineInput defines input for compute_outline tool
type ComputeOutlineInput struct {
	Page         string    `json:"page" jsonschema:"Rendered page HTML or a path to an .html file"`
	Width        float64   `json:"width" jsonschema:"Viewport width in CSS pixels"`
	ScrollTop    float64   `json:"scroll_top,omitempty" jsonschema:"Document scroll offset"`
	HeadingTops  []float64 `json:"heading_tops,omitempty" jsonschema:"Viewport-relative top of every h1-h6 in document order"`
	FooterTop    float64   `json:"footer_top,omitempty" jsonschema:"Document offset of the footer top"`
	PanelHeight  float64   `json:"panel_height,omitempty" jsonschema:"Height of the floating outline panel"`
	HeaderHeight float64   `json:"header_height,omitempty" jsonschema:"Height of the site header"`
	HeaderFixed  bool      `json:"header_fixed,omitempty" jsonschema:"Whether the header stays fixed while scrolling"`
	MinPanelTop  float64   `json:"min_panel_top,omitempty" jsonschema:"Document offset of the panel in normal flow"`
}

// ComputeOutlineOutput defines output for compute_outline tool
type ComputeOutlineOutput struct {
	Entries       []outline.Entry         `json:"entries"`
	Static        bool                    `json:"static"`
	TocSubtract   int                     `json:"toc_subtract"`
	ActiveHeading int                     `json:"active_heading"`
	ActiveEntries []int                   `json:"active_entries"`
	ActiveTitle   string                  `json:"active_title,omitempty"`
	Panel         outline.Panel           `json:"panel"`
	Markers       []outline.SectionMarker `json:"markers"`
}

// ComputeOutline works out which section of a page is being read and where
// the floating outline sits for the given geometry
func (t *Tools) ComputeOutline(ctx context.Context, req *mcp.CallToolRequest, input ComputeOutlineInput) (*mcp.CallToolResult, ComputeOutlineOutput, error) {
	content, err := readContent(input.Page)
	if err != nil {
		return nil, ComputeOutlineOutput{}, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ComputeOutlineOutput{}, fmt.Errorf("page is required")
	}

	result, err := t.app.ComputeOutline(strings.NewReader(content), app.OutlineRequest{
		Width:        input.Width,
		HeaderHeight: input.HeaderHeight,
		HeaderFixed:  input.HeaderFixed,
		MinPanelTop:  input.MinPanelTop,
		Frame: outline.Frame{
			ScrollTop:   input.ScrollTop,
			HeadingTops: input.HeadingTops,
			FooterTop:   input.FooterTop,
			PanelHeight: input.PanelHeight,
		},
	})
	if err != nil {
		return nil, ComputeOutlineOutput{}, fmt.Errorf("failed to compute outline: %w", err)
	}

	output := ComputeOutlineOutput{
		Entries:       result.Page.Tree.Entries,
		Static:        result.Static,
		TocSubtract:   result.Layout.TocSubtract,
		ActiveHeading: result.State.ActiveHeading,
		ActiveEntries: result.State.ActiveEntries,
		Panel:         result.State.Panel,
		Markers:       result.Marks,
	}
	if e := result.State.ActiveEntry; e >= 0 && e < len(output.Entries) {
		output.ActiveTitle = output.Entries[e].Title
	}
	return nil, output, nil
}

func (t *Tools) registerOutlineTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compute_outline",
			Description: "Parse a rendered page's table of contents and compute, for one scroll position, the active heading, the highlighted outline entries and the floating panel placement. Below the static breakpoint the outline stays static.",
		},
		t.ComputeOutline,
	)
	return 1
}
