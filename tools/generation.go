package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/sitekit/sitekit/internal/config"
)

// GenerateSiteConfigInput defines input for generate_site_config tool
type GenerateSiteConfigInput struct {
	Format          string   `json:"format,omitempty" jsonschema:"yaml for sitekit.yaml (default) or hugo for a config.toml [params] section"`
	SearchType      string   `json:"search_type,omitempty" jsonschema:"lunr (default), local, algolia or none"`
	Index           string   `json:"index,omitempty" jsonschema:"index.json path or URL for local search (optional)"`
	AlgoliaAppID    string   `json:"algolia_app_id,omitempty" jsonschema:"Algolia application id (required for algolia)"`
	AlgoliaKey      string   `json:"algolia_search_key,omitempty" jsonschema:"Algolia search-only API key (required for algolia)"`
	AlgoliaIndex    string   `json:"algolia_index,omitempty" jsonschema:"Algolia index name (required for algolia)"`
	MaxResultLength int      `json:"max_result_length,omitempty" jsonschema:"Maximum suggestions shown (optional, defaults to 10)"`
	SnippetLength   int      `json:"snippet_length,omitempty" jsonschema:"Snippet length in characters (optional, defaults to 50)"`
	MaxShownLines   *int     `json:"max_shown_lines,omitempty" jsonschema:"Code blocks longer than this start folded, -1 never folds (optional, defaults to 10)"`
	KeepStatic      bool     `json:"keep_static,omitempty" jsonschema:"Keep the outline in the static container at every width (optional)"`
	EmbedAllow      []string `json:"embed_allow,omitempty" jsonschema:"Glob patterns of user/repo/branch/path that code embeds may fetch (optional)"`
}

// GenerateSiteConfigOutput defines output for generate_site_config tool
type GenerateSiteConfigOutput struct {
	Format     string           `json:"format"`
	Config     string           `json:"config"`
	Validation ValidationResult `json:"validation"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// GenerateSiteConfig produces a starter configuration and validates it
func (t *Tools) GenerateSiteConfig(ctx context.Context, req *mcp.CallToolRequest, input GenerateSiteConfigInput) (*mcp.CallToolResult, GenerateSiteConfigOutput, error) {
	cfg, warnings, err := buildSiteConfig(input)
	if err != nil {
		return nil, GenerateSiteConfigOutput{}, err
	}

	var (
		out    []byte
		format string
	)
	switch input.Format {
	case "", "yaml":
		format = "yaml"
		out, err = yaml.Marshal(siteDocument(cfg))
	case "hugo", "toml":
		format = "toml"
		out, err = config.TOML().Marshal(hugoParams(cfg))
	default:
		return nil, GenerateSiteConfigOutput{}, fmt.Errorf("unknown format '%s' (expected yaml or hugo)", input.Format)
	}
	if err != nil {
		return nil, GenerateSiteConfigOutput{}, fmt.Errorf("failed to encode config: %w", err)
	}

	return nil, GenerateSiteConfigOutput{
		Format:     format,
		Config:     string(out),
		Validation: validateConfig(string(out), format),
		Warnings:   warnings,
	}, nil
}

// buildSiteConfig applies input over the defaults
func buildSiteConfig(input GenerateSiteConfigInput) (*config.Config, []string, error) {
	cfg := config.DefaultConfig()
	var warnings []string

	switch input.SearchType {
	case "", string(config.SearchLunr), string(config.SearchLocal):
		if input.SearchType != "" {
			cfg.Search.Type = config.SearchType(input.SearchType)
		}
		if input.Index != "" {
			cfg.Search.Index = input.Index
		} else {
			warnings = append(warnings, fmt.Sprintf("index not specified, using default '%s'", cfg.Search.Index))
		}
	case string(config.SearchAlgolia):
		cfg.Search.Type = config.SearchAlgolia
		cfg.Search.Algolia = config.AlgoliaConfig{
			AppID:     input.AlgoliaAppID,
			SearchKey: input.AlgoliaKey,
			Index:     input.AlgoliaIndex,
		}
		if input.AlgoliaAppID == "" || input.AlgoliaKey == "" || input.AlgoliaIndex == "" {
			warnings = append(warnings, "algolia search needs algolia_app_id, algolia_search_key and algolia_index")
		}
	case "none":
		cfg.Search.Enable = false
	default:
		return nil, nil, fmt.Errorf("unknown search type '%s'", input.SearchType)
	}

	if input.MaxResultLength > 0 {
		cfg.Search.MaxResultLength = input.MaxResultLength
	}
	if input.SnippetLength > 0 {
		cfg.Search.SnippetLength = input.SnippetLength
	}
	if input.MaxShownLines != nil {
		cfg.Code.MaxShownLines = *input.MaxShownLines
	}
	cfg.Outline.Kept = input.KeepStatic
	cfg.Code.EmbedAllow = input.EmbedAllow

	return cfg, warnings, nil
}

// siteDocument is the part of cfg a site author writes in sitekit.yaml.
// Machine-local settings (preference path, server) stay at their defaults.
func siteDocument(cfg *config.Config) map[string]interface{} {
	search := map[string]interface{}{
		"enable":            cfg.Search.Enable,
		"type":              string(cfg.Search.Type),
		"max_result_length": cfg.Search.MaxResultLength,
		"snippet_length":    cfg.Search.SnippetLength,
	}
	if cfg.Search.Type == config.SearchAlgolia {
		search["algolia"] = map[string]interface{}{
			"app_id":     cfg.Search.Algolia.AppID,
			"search_key": cfg.Search.Algolia.SearchKey,
			"index":      cfg.Search.Algolia.Index,
		}
	} else {
		search["index"] = cfg.Search.Index
	}

	code := map[string]interface{}{"max_shown_lines": cfg.Code.MaxShownLines}
	if len(cfg.Code.EmbedAllow) > 0 {
		code["embed_allow"] = cfg.Code.EmbedAllow
	}

	return map[string]interface{}{
		"search":  search,
		"outline": map[string]interface{}{"kept": cfg.Outline.Kept},
		"code":    code,
	}
}

// hugoParams is cfg as the theme's [params] table. Only the keys the theme
// reads are emitted.
func hugoParams(cfg *config.Config) map[string]interface{} {
	search := map[string]interface{}{
		"enable":          cfg.Search.Enable,
		"type":            string(cfg.Search.Type),
		"maxResultLength": cfg.Search.MaxResultLength,
		"snippetLength":   cfg.Search.SnippetLength,
		"highlightTag":    cfg.Search.HighlightTag,
	}
	if cfg.Search.Type == config.SearchAlgolia {
		search["algolia"] = map[string]interface{}{
			"index":     cfg.Search.Algolia.Index,
			"appID":     cfg.Search.Algolia.AppID,
			"searchKey": cfg.Search.Algolia.SearchKey,
		}
	}

	return map[string]interface{}{
		"params": map[string]interface{}{
			"search": search,
			"page": map[string]interface{}{
				"toc":  map[string]interface{}{"keepStatic": cfg.Outline.Kept},
				"code": map[string]interface{}{"maxShownLines": cfg.Code.MaxShownLines},
			},
		},
	}
}

func (t *Tools) registerGenerationTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "generate_site_config",
			Description: "Generate a starter sitekit.yaml or Hugo [params] section for the chosen search backend, outline and code options. The result is validated before it is returned.",
		},
		t.GenerateSiteConfig,
	)
	return 1
}
