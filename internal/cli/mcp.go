package cli

import (
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/sitekit/sitekit/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long:  `Starts a Model Context Protocol server on stdio exposing site search, outline, repository card, code embed, theme and config tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// MCP uses stdout for protocol
		log.SetOutput(os.Stderr)
		log.Printf("%s v%s starting...", serverName, Version)

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Printf("Error closing search index: %v", err)
			}
		}()

		server := mcp.NewServer(
			&mcp.Implementation{
				Name:    serverName,
				Version: Version,
			},
			nil,
		)
		log.Printf("Server initialized: %s v%s", serverName, Version)

		tools.Register(server, a)
		log.Printf("✓ Server ready and waiting for connections")

		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
