// Package cli implements the sitekit command line: the MCP server, the HTTP
// API and a few terminal helpers over the same components.
package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/config"
)

const (
	serverName  = "sitekit"
	description = "Site widgets and search for Hugo sites, as an MCP server and HTTP API"
)

// Version is set via ldflags at build time.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           serverName,
	Short:         description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file: sitekit.yaml or a Hugo config.toml (default ./sitekit.yaml if present)")
}

// loadConfig reads the --config file, or ./sitekit.yaml when present, over
// the defaults and SITEKIT_* variables
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	} else {
		path = config.DefaultFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Printf("✓ Config loaded (%s, search: %s)", path, cfg.Search.Type)
	return cfg, nil
}

// newApp loads the config and wires the components
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
