package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateSiteConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		format    string
		wantValid bool
		wantCode  string
		wantPath  string
	}{
		{
			name:      "valid yaml",
			config:    "search:\n  enable: true\n  index: public/index.json\n  max_result_length: 5\n",
			wantValid: true,
		},
		{
			name:      "valid json",
			config:    `{"search": {"type": "local", "snippet_length": 80}}`,
			format:    "json",
			wantValid: true,
		},
		{
			name:      "valid hugo toml",
			config:    "baseURL = \"https://example.org\"\n[params.search]\nenable = true\ntype = \"lunr\"\nmaxResultLength = 8\n",
			wantValid: true,
		},
		{
			name:     "yaml syntax error",
			config:   "search:\n  enable: [true\n",
			wantCode: "INVALID_SYNTAX",
		},
		{
			name:     "schema violation",
			config:   "search:\n  max_result_length: 0\n",
			wantCode: "SCHEMA_VALIDATION_ERROR",
			wantPath: "$.search.max_result_length",
		},
		{
			name:     "hugo schema violation",
			config:   "[params.search]\nhighlightTag = \"<b>\"\n",
			wantCode: "SCHEMA_VALIDATION_ERROR",
			wantPath: "$.search.highlight_tag",
		},
		{
			name:     "algolia without credentials",
			config:   "search:\n  type: algolia\n",
			wantCode: "SEMANTIC_ERROR",
		},
	}

	tools := newTestTools(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := tools.ValidateSiteConfig(context.Background(), nil, ValidateSiteConfigInput{Config: tt.config, Format: tt.format})
			if err != nil {
				t.Fatalf("ValidateSiteConfig failed: %v", err)
			}
			if output.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %+v)", output.Valid, tt.wantValid, output.Errors)
			}
			if tt.wantValid {
				if len(output.Errors) != 0 {
					t.Errorf("Valid config reported errors: %+v", output.Errors)
				}
				return
			}
			if len(output.Errors) == 0 {
				t.Fatal("Expected at least one error")
			}
			if output.Errors[0].Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", output.Errors[0].Code, tt.wantCode)
			}
			if tt.wantPath != "" && output.Errors[0].Path != tt.wantPath {
				t.Errorf("Path = %s, want %s", output.Errors[0].Path, tt.wantPath)
			}
		})
	}
}

func TestValidateSiteConfig_File(t *testing.T) {
	tools := newTestTools(t, nil)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[params.page.code]\nmaxShownLines = -1\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, output, err := tools.ValidateSiteConfig(context.Background(), nil, ValidateSiteConfigInput{Config: path})
	if err != nil {
		t.Fatalf("ValidateSiteConfig failed: %v", err)
	}
	if !output.Valid || output.Format != "toml" {
		t.Errorf("Expected valid toml, got %+v", output.ValidationResult)
	}
}

func TestValidateSiteConfig_MissingFile(t *testing.T) {
	tools := newTestTools(t, nil)
	path := filepath.Join(t.TempDir(), "sitekit.yaml")

	_, output, err := tools.ValidateSiteConfig(context.Background(), nil, ValidateSiteConfigInput{Config: path})
	if err != nil {
		t.Fatalf("ValidateSiteConfig failed: %v", err)
	}
	if output.Valid || len(output.Errors) != 1 || output.Errors[0].Code != "FILE_READ_ERROR" {
		t.Fatalf("Unexpected result: %+v", output.ValidationResult)
	}
	if !strings.Contains(output.Errors[0].Message, "not found") {
		t.Errorf("Message = %s", output.Errors[0].Message)
	}
}

func TestGuessFormat(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"# comment\n[params]\n", "toml"},
		{"title = \"site\"\n", "toml"},
		{"search:\n  enable: true\n", "yaml"},
		{"url: \"https://x.org/?a=b\"\n", "yaml"},
		{`{"search": {}}`, "yaml"},
	}
	for _, tt := range tests {
		if got := guessFormat(tt.content); got != tt.want {
			t.Errorf("guessFormat(%q) = %s, want %s", tt.content, got, tt.want)
		}
	}
}
