package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/v2"
)

// TOMLParser is a koanf parser for TOML documents
type TOMLParser struct{}

// TOML returns a TOML parser
func TOML() *TOMLParser {
	return &TOMLParser{}
}

// Unmarshal parses TOML bytes into a nested map
func (p *TOMLParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if _, err := toml.Decode(string(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal encodes a nested map as TOML
func (p *TOMLParser) Marshal(o map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hugoKeys maps the theme's [params] keys, lowercased as Hugo treats them,
// onto sitekit keys
var hugoKeys = map[string]string{
	"params.search.enable":            "search.enable",
	"params.search.type":              "search.type",
	"params.search.maxresultlength":   "search.max_result_length",
	"params.search.snippetlength":     "search.snippet_length",
	"params.search.highlighttag":      "search.highlight_tag",
	"params.search.algolia.index":     "search.algolia.index",
	"params.search.algolia.appid":     "search.algolia.app_id",
	"params.search.algolia.searchkey": "search.algolia.search_key",
	"params.page.toc.keepstatic":      "outline.kept",
	"params.page.code.maxshownlines":  "code.max_shown_lines",
}

// isHugoConfig reports whether k holds a Hugo site config rather than a
// sitekit file
func isHugoConfig(k *koanf.Koanf) bool {
	return k.Exists("params") || k.Exists("baseURL") || k.Exists("baseurl")
}

// fromHugo copies the recognised theme parameters of a Hugo config into a
// fresh koanf instance with sitekit keys. Other keys are dropped.
func fromHugo(k *koanf.Koanf) (*koanf.Koanf, error) {
	out := koanf.New(".")
	for key, value := range k.All() {
		target, ok := hugoKeys[strings.ToLower(key)]
		if !ok {
			continue
		}
		if err := out.Set(target, value); err != nil {
			return nil, fmt.Errorf("mapping %s: %w", key, err)
		}
	}
	return out, nil
}
