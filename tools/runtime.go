package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/runtime"
)

// DetectSiteRuntimeInput defines input for detect_site_runtime tool
type DetectSiteRuntimeInput struct{}

// DetectSiteRuntimeOutput defines output for detect_site_runtime tool
type DetectSiteRuntimeOutput struct {
	*runtime.RuntimeInfo
}

// DetectSiteRuntime inspects the Hugo toolchain and the configured search
// index, and recommends what to do next
func (t *Tools) DetectSiteRuntime(ctx context.Context, req *mcp.CallToolRequest, input DetectSiteRuntimeInput) (*mcp.CallToolResult, DetectSiteRuntimeOutput, error) {
	info, err := runtime.DetectRuntimeInfo(ctx, t.app.Config)
	if err != nil {
		return nil, DetectSiteRuntimeOutput{}, fmt.Errorf("runtime detection failed: %w", err)
	}
	return nil, DetectSiteRuntimeOutput{RuntimeInfo: info}, nil
}

func (t *Tools) registerRuntimeTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "detect_site_runtime",
			Description: "Detect the Hugo installation and check that the configured search index can be reached. Returns the search mode and prioritised recommendations (install or upgrade Hugo, build the site, persist the index).",
		},
		t.DetectSiteRuntime,
	)
	return 1
}
