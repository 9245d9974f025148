package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultPreferencePath is ~/.config/sitekit/preferences.yaml, or a
// relative file when the home directory is unknown
func DefaultPreferencePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sitekit-preferences.yaml"
	}
	return filepath.Join(dir, "sitekit", "preferences.yaml")
}

// DefaultConfig returns the theme's documented defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Enable:          true,
			Type:            SearchLunr,
			Index:           "public/index.json",
			Analyzer:        "standard",
			MaxResultLength: 10,
			SnippetLength:   50,
			HighlightTag:    "em",
		},
		Outline: OutlineConfig{
			BaseSpacing:      20,
			StaticBreakpoint: 960,
			MobileBreakpoint: 680,
			ResizeDebounce:   100 * time.Millisecond,
			TocSubtract:      -1,
		},
		Code: CodeConfig{
			MaxShownLines: 10,
		},
		RepoCard: RepoCardConfig{
			CacheSize: 256,
			CacheTTL:  time.Hour,
		},
		Preference: PreferenceConfig{
			Path: DefaultPreferencePath(),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}
