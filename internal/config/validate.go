package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

const schemaURL = "https://sitekit.dev/schema/config.json"

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the compiled configuration schema
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("embedded schema is invalid: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks c against the schema, then the rules a schema cannot
// express
func (c *Config) Validate() error {
	schema, err := Schema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config for validation: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding config for validation: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w at %s: %v", ErrInvalid, strings.Join(schemaPaths(verr), ", "), err)
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Search.Enable {
		if c.Search.Type == SearchAlgolia {
			a := c.Search.Algolia
			if a.AppID == "" || a.SearchKey == "" || a.Index == "" {
				return fmt.Errorf("%w: search.algolia requires app_id, search_key and index", ErrInvalid)
			}
		} else if c.Search.Index == "" && c.Search.PersistedIndex == "" {
			return fmt.Errorf("%w: search.index or search.persisted_index is required", ErrInvalid)
		}
	}

	if c.Outline.MobileBreakpoint > c.Outline.StaticBreakpoint {
		return fmt.Errorf("%w: outline.mobile_breakpoint must not exceed static_breakpoint", ErrInvalid)
	}

	for _, pattern := range c.Code.EmbedAllow {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: code.embed_allow pattern %q is malformed", ErrInvalid, pattern)
		}
	}
	return nil
}

// schemaPaths collects the instance locations of the leaf errors
func schemaPaths(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		if len(verr.InstanceLocation) == 0 {
			return []string{"$"}
		}
		return []string{"$." + strings.Join(verr.InstanceLocation, ".")}
	}

	var out []string
	for _, cause := range verr.Causes {
		out = append(out, schemaPaths(cause)...)
	}
	return out
}
