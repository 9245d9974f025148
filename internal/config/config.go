// Package config loads sitekit settings from a YAML file or a Hugo
// config.toml, overlays SITEKIT_* environment variables and validates the
// result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. Nested keys are joined with a
// double underscore: SITEKIT_SEARCH__MAX_RESULT_LENGTH=5.
const EnvPrefix = "SITEKIT_"

// DefaultFile is read from the working directory when no path is given
const DefaultFile = "sitekit.yaml"

// Load reads the configuration at path (which may be empty or missing),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var fileConf *koanf.Koanf
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileConf, err = loadFile(path)
			if err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	cfg, err := build(fileConf, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses a config document ("yaml", "json" or "toml") over the
// defaults. It neither reads the environment nor validates.
func Decode(data []byte, format string) (*Config, error) {
	ext := ""
	if format != "" {
		ext = "." + strings.TrimPrefix(format, ".")
	}
	parser, err := parserFor(ext)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("parsing %s config: %w", format, err)
	}
	if isHugoConfig(k) {
		if k, err = fromHugo(k); err != nil {
			return nil, err
		}
	}
	return build(k, false)
}

// build unmarshals defaults, then fileConf, then optionally SITEKIT_*
// variables into a Config
func build(fileConf *koanf.Koanf, withEnv bool) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if fileConf != nil {
		if err := k.Merge(fileConf); err != nil {
			return nil, fmt.Errorf("merging config: %w", err)
		}
	}

	if withEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("loading env overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// loadFile parses a YAML or TOML file. A Hugo config is reduced to the
// theme parameters sitekit understands.
func loadFile(path string) (*koanf.Koanf, error) {
	parser, err := parserFor(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if isHugoConfig(k) {
		return fromHugo(k)
	}
	return k, nil
}

// parserFor picks a parser by file extension. JSON is read as YAML.
func parserFor(ext string) (koanf.Parser, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		return TOML(), nil
	case ".yaml", ".yml", ".json", "":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
}

// envKey maps SITEKIT_SEARCH__MAX_RESULT_LENGTH to search.max_result_length
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
