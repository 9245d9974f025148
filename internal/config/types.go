package config

import "time"

// SearchType selects the search backend
type SearchType string

const (
	// SearchLunr is the theme's name for the local index backend
	SearchLunr    SearchType = "lunr"
	SearchLocal   SearchType = "local"
	SearchAlgolia SearchType = "algolia"
)

// Local reports whether t selects the local index backend
func (t SearchType) Local() bool {
	return t == SearchLunr || t == SearchLocal
}

// Config is the top-level sitekit configuration (sitekit.yaml, or the
// [params] table of a Hugo config.toml).
type Config struct {
	Search     SearchConfig     `yaml:"search" koanf:"search" json:"search"`
	Outline    OutlineConfig    `yaml:"outline" koanf:"outline" json:"outline"`
	Code       CodeConfig       `yaml:"code" koanf:"code" json:"code"`
	RepoCard   RepoCardConfig   `yaml:"repo_card" koanf:"repo_card" json:"repo_card"`
	Preference PreferenceConfig `yaml:"preference" koanf:"preference" json:"preference"`
	Server     ServerConfig     `yaml:"server" koanf:"server" json:"server"`
}

// SearchConfig configures the query engine
type SearchConfig struct {
	Enable bool       `yaml:"enable" koanf:"enable" json:"enable"`
	Type   SearchType `yaml:"type" koanf:"type" json:"type"`

	// Index is the index.json location, a file path or an http(s) URL
	Index string `yaml:"index" koanf:"index" json:"index"`

	// PersistedIndex is a bleve directory built by cmd/indexer
	PersistedIndex string `yaml:"persisted_index" koanf:"persisted_index" json:"persisted_index"`
	Analyzer       string `yaml:"analyzer" koanf:"analyzer" json:"analyzer"`

	MaxResultLength int    `yaml:"max_result_length" koanf:"max_result_length" json:"max_result_length"`
	SnippetLength   int    `yaml:"snippet_length" koanf:"snippet_length" json:"snippet_length"`
	HighlightTag    string `yaml:"highlight_tag" koanf:"highlight_tag" json:"highlight_tag"`

	Algolia AlgoliaConfig `yaml:"algolia" koanf:"algolia" json:"algolia"`
}

// AlgoliaConfig identifies the hosted index
type AlgoliaConfig struct {
	AppID     string `yaml:"app_id" koanf:"app_id" json:"app_id"`
	SearchKey string `yaml:"search_key" koanf:"search_key" json:"search_key"`
	Index     string `yaml:"index" koanf:"index" json:"index"`
	Host      string `yaml:"host" koanf:"host" json:"host"`
}

// OutlineConfig configures the outline tracker
type OutlineConfig struct {
	BaseSpacing      float64       `yaml:"base_spacing" koanf:"base_spacing" json:"base_spacing"`
	StaticBreakpoint float64       `yaml:"static_breakpoint" koanf:"static_breakpoint" json:"static_breakpoint"`
	MobileBreakpoint float64       `yaml:"mobile_breakpoint" koanf:"mobile_breakpoint" json:"mobile_breakpoint"`
	ResizeDebounce   time.Duration `yaml:"resize_debounce" koanf:"resize_debounce" json:"resize_debounce"`

	// TocSubtract overrides the value derived from the page when >= 0
	TocSubtract int  `yaml:"toc_subtract" koanf:"toc_subtract" json:"toc_subtract"`
	Kept        bool `yaml:"kept" koanf:"kept" json:"kept"`
}

// CodeConfig configures code blocks and remote embeds
type CodeConfig struct {
	// MaxShownLines collapses longer blocks; negative never collapses
	MaxShownLines int      `yaml:"max_shown_lines" koanf:"max_shown_lines" json:"max_shown_lines"`
	EmbedAllow    []string `yaml:"embed_allow" koanf:"embed_allow" json:"embed_allow"`
	RawBase       string   `yaml:"raw_base" koanf:"raw_base" json:"raw_base"`
}

// RepoCardConfig configures repository cards
type RepoCardConfig struct {
	APIBase   string        `yaml:"api_base" koanf:"api_base" json:"api_base"`
	ColorsURL string        `yaml:"colors_url" koanf:"colors_url" json:"colors_url"`
	Token     string        `yaml:"token" koanf:"token" json:"-"`
	CacheSize int           `yaml:"cache_size" koanf:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl" koanf:"cache_ttl" json:"cache_ttl"`
}

// PreferenceConfig locates the persisted theme preference
type PreferenceConfig struct {
	Path string `yaml:"path" koanf:"path" json:"path"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" koanf:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins" json:"allowed_origins"`
}
