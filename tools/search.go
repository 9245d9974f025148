package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitekit/sitekit/internal/search"
)

// SearchSiteInput defines input for search_site tool
type SearchSiteInput struct {
	Query      string `json:"query" jsonschema:"Search query, as typed into the site's search box"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, capped by the configured maxResultLength)"`
}

// SearchSiteOutput defines output for search_site tool
type SearchSiteOutput struct {
	Query   string           `json:"query"`
	Backend string           `json:"backend"`
	Results search.ResultSet `json:"results"`
	Error   string           `json:"error,omitempty"`
}

// SearchSite runs a query the way the search box does. A failing backend
// yields an empty result set with the reason in Error.
func (t *Tools) SearchSite(ctx context.Context, req *mcp.CallToolRequest, input SearchSiteInput) (*mcp.CallToolResult, SearchSiteOutput, error) {
	output := SearchSiteOutput{Query: input.Query}
	if b := t.app.Engine.Backend(); b != nil {
		output.Backend = b.Name()
	}

	results, err := t.app.Engine.QueryDetailed(ctx, input.Query)
	if err != nil {
		output.Error = err.Error()
	}
	if input.MaxResults > 0 {
		results = search.Truncate(results, input.MaxResults)
	}
	output.Results = results

	return nil, output, nil
}

// RefreshSearchIndexInput defines input for refresh_search_index tool
type RefreshSearchIndexInput struct{}

// RefreshSearchIndexOutput defines output for refresh_search_index tool
type RefreshSearchIndexOutput struct {
	Updated     bool   `json:"updated"`
	DocsIndexed uint64 `json:"docs_indexed"`
	Message     string `json:"message"`
}

// RefreshSearchIndex reloads index.json and swaps in a fresh local index
func (t *Tools) RefreshSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshSearchIndexInput) (*mcp.CallToolResult, RefreshSearchIndexOutput, error) {
	count, err := t.app.RefreshIndex(ctx)
	if err != nil {
		return nil, RefreshSearchIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	return nil, RefreshSearchIndexOutput{
		Updated:     true,
		DocsIndexed: count,
		Message:     fmt.Sprintf("Search index refreshed successfully, %d records indexed", count),
	}, nil
}

func (t *Tools) registerSearchTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_site",
			Description: "Search the site's content index. Returns at most maxResultLength results, one per page, in relevance order, with matched terms wrapped in the highlight tag and a snippet of the content around the first match.",
		},
		t.SearchSite,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_search_index",
			Description: "Reload the site's index.json and rebuild the local search index. In-flight searches finish on the old index. Not available with hosted (Algolia) search.",
		},
		t.RefreshSearchIndex,
	)

	return 2
}
