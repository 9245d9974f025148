package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/sitekit/sitekit/internal/config"
)

// ValidationResult represents the result of configuration validation
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Format  string            `json:"format"`
	Errors  []ValidationError `json:"errors"`
	Summary string            `json:"summary"`
}

// ValidationError represents a validation error with location
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidateSiteConfigInput defines input for validate_site_config tool
type ValidateSiteConfigInput struct {
	Config string `json:"config" jsonschema:"sitekit.yaml or Hugo config.toml content, or a path to either"`
	Format string `json:"format,omitempty" jsonschema:"yaml, json or toml (optional, inferred from the file extension or content)"`
}

// ValidateSiteConfigOutput defines output for validate_site_config tool
type ValidateSiteConfigOutput struct {
	ValidationResult
}

// ValidateSiteConfig parses a config, checks it against the embedded schema
// and then applies the cross-field rules
func (t *Tools) ValidateSiteConfig(ctx context.Context, req *mcp.CallToolRequest, input ValidateSiteConfigInput) (*mcp.CallToolResult, ValidateSiteConfigOutput, error) {
	return nil, ValidateSiteConfigOutput{ValidationResult: validateConfig(input.Config, input.Format)}, nil
}

func validateConfig(source, format string) ValidationResult {
	result := ValidationResult{Errors: []ValidationError{}}

	content := source
	if isFilePath(source) {
		path := strings.TrimSpace(source)
		data, err := os.ReadFile(path)
		if err != nil {
			var errMsg string
			if os.IsNotExist(err) {
				errMsg = fmt.Sprintf("Configuration file not found: %s", path)
			} else if os.IsPermission(err) {
				errMsg = fmt.Sprintf("Permission denied reading file: %s", path)
			} else {
				errMsg = fmt.Sprintf("Failed to read configuration file '%s': %s", path, err.Error())
			}
			result.Errors = append(result.Errors, ValidationError{Path: path, Message: errMsg, Code: "FILE_READ_ERROR"})
			result.Summary = "Configuration file could not be read"
			return result
		}
		content = string(data)
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(path), ".")
		}
	}
	if format == "" {
		format = guessFormat(content)
	}
	result.Format = format

	cfg, err := config.Decode([]byte(content), format)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{Message: err.Error(), Code: "INVALID_SYNTAX"})
		result.Summary = fmt.Sprintf("Configuration has %s syntax errors", strings.ToUpper(format))
		return result
	}

	if errs := schemaErrors(cfg); len(errs) > 0 {
		result.Errors = errs
		result.Summary = fmt.Sprintf("Configuration validation failed with %d error(s)", len(errs))
		return result
	}

	if err := cfg.Validate(); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Message: strings.TrimPrefix(err.Error(), config.ErrInvalid.Error()+": "),
			Code:    "SEMANTIC_ERROR",
		})
		result.Summary = "Configuration validation failed with 1 error(s)"
		return result
	}

	result.Valid = true
	result.Summary = "Configuration is valid"
	return result
}

// guessFormat tells TOML from YAML by its first meaningful line. JSON is
// read by the YAML parser.
func guessFormat(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "[\"") {
			return "toml"
		}
		if key, _, ok := strings.Cut(line, "="); ok && !strings.Contains(key, ":") {
			return "toml"
		}
		break
	}
	return "yaml"
}

// schemaErrors validates the decoded config against the schema and reports
// every failing location
func schemaErrors(cfg *config.Config) []ValidationError {
	schema, err := config.Schema()
	if err != nil {
		return []ValidationError{{Message: err.Error(), Code: "SCHEMA_UNAVAILABLE"}}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return []ValidationError{{Message: err.Error(), Code: "SCHEMA_VALIDATION_ERROR"}}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []ValidationError{{Message: err.Error(), Code: "SCHEMA_VALIDATION_ERROR"}}
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return parseSchemaValidationErrors(verr)
		}
		return []ValidationError{{Message: err.Error(), Code: "SCHEMA_VALIDATION_ERROR"}}
	}
	return nil
}

// parseSchemaValidationErrors converts jsonschema validation errors to our
// format, one entry per leaf cause
func parseSchemaValidationErrors(validationErr *jsonschema.ValidationError) []ValidationError {
	if len(validationErr.Causes) > 0 {
		var errs []ValidationError
		for _, cause := range validationErr.Causes {
			errs = append(errs, parseSchemaValidationErrors(cause)...)
		}
		return errs
	}

	path := "$"
	if len(validationErr.InstanceLocation) > 0 {
		path = "$." + strings.Join(validationErr.InstanceLocation, ".")
	}
	return []ValidationError{{
		Path:    path,
		Message: validationErr.Error(),
		Code:    "SCHEMA_VALIDATION_ERROR",
	}}
}

func (t *Tools) registerValidationTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_site_config",
			Description: "Validate a sitekit.yaml or a Hugo config.toml [params] section: syntax, the embedded JSON schema, then cross-field rules (Algolia credentials, index location, breakpoints, embed allow patterns). Accepts content or a file path.",
		},
		t.ValidateSiteConfig,
	)
	return 1
}
